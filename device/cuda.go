//go:build cuda

package device

import (
	"gorgonia.org/cu"
)

func detectCUDA() (int, string, error) {
	n, err := cu.NumDevices()
	if err != nil {
		return 0, "", err
	}
	if n == 0 {
		return 0, "", nil
	}
	name, err := cu.Device(0).Name()
	if err != nil {
		return n, "", err
	}
	return n, name, nil
}
