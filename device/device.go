// Package device resolves the compute device a run is placed on. The choice
// is made once at startup.
package device

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
)

type Kind string

const (
	CPU  Kind = "cpu"
	CUDA Kind = "cuda"
)

type Device struct {
	Kind        Kind
	Index       int
	Description string
}

func (d Device) String() string {
	if d.Kind == CUDA {
		return fmt.Sprintf("cuda:%d", d.Index)
	}
	return string(d.Kind)
}

// cudaDetect reports the number of visible CUDA devices and the name of the
// first one. It is replaced in tests.
var cudaDetect = detectCUDA

// Resolve maps "auto", "cpu", "cuda" or "cuda:N" to a device. "auto" falls
// back to the CPU when no CUDA device is visible; an explicit CUDA request
// without a matching device fails with commons.ErrDeviceUnavailable.
func Resolve(requested string) (Device, error) {
	requested = strings.ToLower(strings.TrimSpace(requested))
	switch {
	case requested == "" || requested == "auto":
		n, name, err := cudaDetect()
		if err == nil && n > 0 {
			return Device{Kind: CUDA, Index: 0, Description: name}, nil
		}
		return cpuDevice(), nil
	case requested == string(CPU):
		return cpuDevice(), nil
	case requested == string(CUDA) || strings.HasPrefix(requested, "cuda:"):
		index := 0
		if strings.HasPrefix(requested, "cuda:") {
			if _, err := fmt.Sscanf(requested, "cuda:%d", &index); err != nil || index < 0 {
				return Device{}, errors.Errorf("invalid device %q", requested)
			}
		}
		n, name, err := cudaDetect()
		if err != nil {
			return Device{}, commons.WrapError(commons.DeviceUnavailable, err, "cuda requested but not available")
		}
		if index >= n {
			return Device{}, commons.NewError(commons.DeviceUnavailable, "cuda:%d requested but %d device(s) visible", index, n)
		}
		return Device{Kind: CUDA, Index: index, Description: name}, nil
	default:
		return Device{}, errors.Errorf("unknown device %q", requested)
	}
}

func cpuDevice() Device {
	desc := fmt.Sprintf("%s (%d cores)", cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores)
	if cpuid.CPU.Supports(cpuid.AVX2) {
		desc += " avx2"
	}
	return Device{Kind: CPU, Description: desc}
}

// LogSelection logs the chosen device the way every binary reports it.
func LogSelection(d Device) {
	log.WithField("device", d.String()).Info("[Device] using ", d.Description)
}
