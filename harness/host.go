package harness

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Host describes the machine a run executed on.
type Host struct {
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	NumCPU    int      `json:"num_cpu"`
	GoVersion string   `json:"go_version"`
	Features  []string `json:"cpu_features"`
}

// DetectHost reports the current machine.
func DetectHost() Host {
	return Host{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Features:  cpuFeatures(runtime.GOARCH),
	}
}

type feature struct {
	name    string
	present bool
}

func cpuFeatures(arch string) []string {
	var candidates []feature

	switch arch {
	case "amd64", "386":
		candidates = []feature{
			{"sse4.2", cpu.X86.HasSSE42},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		}
	case "arm64":
		candidates = []feature{
			{"asimd", cpu.ARM64.HasASIMD},
			{"fphp", cpu.ARM64.HasFPHP},
			{"sve", cpu.ARM64.HasSVE},
		}
	}

	features := make([]string, 0, len(candidates))
	for _, f := range candidates {
		if f.present {
			features = append(features, f.name)
		}
	}

	return features
}
