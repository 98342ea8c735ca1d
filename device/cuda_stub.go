//go:build !cuda

package device

import (
	"github.com/pkg/errors"
)

func detectCUDA() (int, string, error) {
	return 0, "", errors.New("binary built without the cuda tag")
}
