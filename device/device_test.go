package device

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/vamsi1609/pytorch-deep-learning/commons"
)

func withCUDA(t *testing.T, n int, err error) {
	t.Helper()
	prev := cudaDetect
	cudaDetect = func() (int, string, error) { return n, "Tesla T4", err }
	t.Cleanup(func() { cudaDetect = prev })
}

func TestAutoFallsBackToCPU(t *testing.T) {
	withCUDA(t, 0, errors.New("no driver"))
	d, err := Resolve("auto")
	ok(t, err)
	equals(t, d.Kind, CPU)
	equals(t, d.String(), "cpu")
}

func TestAutoPrefersCUDA(t *testing.T) {
	withCUDA(t, 2, nil)
	d, err := Resolve("")
	ok(t, err)
	equals(t, d.String(), "cuda:0")
	equals(t, d.Description, "Tesla T4")
}

func TestExplicitCUDAUnavailable(t *testing.T) {
	withCUDA(t, 0, errors.New("no driver"))
	_, err := Resolve("cuda")
	equals(t, errors.Is(err, commons.ErrDeviceUnavailable), true)

	withCUDA(t, 1, nil)
	_, err = Resolve("cuda:1")
	equals(t, errors.Is(err, commons.ErrDeviceUnavailable), true)

	d, err := Resolve("CUDA:0")
	ok(t, err)
	equals(t, d.Index, 0)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func TestUnknownDevice(t *testing.T) {
	for _, requested := range []string{"tpu", "cuda:x"} {
		_, err := Resolve(requested)
		if err == nil {
			t.Fatalf("expected error for %q", requested)
		}
		_, traced := err.(stackTracer)
		equals(t, traced, true)
	}
}
