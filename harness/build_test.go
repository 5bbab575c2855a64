package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBinary(t *testing.T) {
	assert.Equal(t,
		filepath.Join("bin", "kernelworker-native"),
		ResolveBinary("bin", StrategyNative),
	)
}

func TestDefaultBuildConfig(t *testing.T) {
	native := DefaultBuildConfig(StrategyNative)
	assert.Equal(t, CompilerGC, native.Compiler)
	assert.Empty(t, native.Flags)

	baseline := DefaultBuildConfig(StrategyBaseline)
	assert.Equal(t, "all=-N -l", baseline.Flags)
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  BuildConfig
		want []string
	}{
		{
			name: "gc defaults",
			cfg:  BuildConfig{Strategy: StrategyNative, Compiler: CompilerGC, BinDir: "bin"},
			want: []string{"build", "-o", filepath.Join("bin", "kernelworker-native"), WorkerPackage},
		},
		{
			name: "gc flags",
			cfg:  BuildConfig{Strategy: StrategyBaseline, Flags: "all=-N -l", BinDir: "bin"},
			want: []string{
				"build", "-gcflags=all=-N -l",
				"-o", filepath.Join("bin", "kernelworker-baseline"), WorkerPackage,
			},
		},
		{
			name: "gccgo",
			cfg:  BuildConfig{Strategy: StrategyNative, Compiler: CompilerGCCGO, Flags: "-O3", BinDir: "bin"},
			want: []string{
				"build", "-compiler=gccgo", "-gccgoflags=-O3",
				"-o", filepath.Join("bin", "kernelworker-native"), WorkerPackage,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildArgs(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildArgsUnknownCompiler(t *testing.T) {
	_, err := BuildArgs(BuildConfig{Strategy: StrategyNative, Compiler: "tinygo"})
	require.ErrorContains(t, err, "unknown compiler")
}

func TestWrapCommand(t *testing.T) {
	direct := WrapCommand(nil, "/bin/kernelworker-native")
	assert.Equal(t, "/bin/kernelworker-native", direct.Binary)
	assert.Equal(t, []string{"-serve"}, direct.ExtraArgs)

	pinned := WrapCommand([]string{"taskset", "-c", "2"}, "/bin/kernelworker-native")
	assert.Equal(t, "taskset", pinned.Binary)
	assert.Equal(t, []string{"-c", "2", "/bin/kernelworker-native", "-serve"}, pinned.ExtraArgs)
}
