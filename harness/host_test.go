package harness

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectHost(t *testing.T) {
	host := DetectHost()

	assert.Equal(t, runtime.GOOS, host.OS)
	assert.Equal(t, runtime.GOARCH, host.Arch)
	assert.Positive(t, host.NumCPU)
	assert.Equal(t, runtime.Version(), host.GoVersion)
	assert.NotNil(t, host.Features)
}

func TestCPUFeaturesUnknownArch(t *testing.T) {
	assert.Empty(t, cpuFeatures("wasm"))
}
