package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Compilers accepted by BuildConfig.
const (
	CompilerGC    = "gc"
	CompilerGCCGO = "gccgo"
)

// WorkerPackage is the import path, relative to the module root, of the
// worker binary.
const WorkerPackage = "./cmd/kernelworker"

// BuildConfig describes how to build the worker binary for a strategy.
type BuildConfig struct {
	Strategy  string
	Compiler  string
	Flags     string
	SourceDir string
	BinDir    string
}

// DefaultBuildConfig returns the build settings a strategy uses when nothing
// is configured: native builds with the toolchain defaults, baseline with
// optimizations and inlining disabled.
func DefaultBuildConfig(strategy string) BuildConfig {
	cfg := BuildConfig{Strategy: strategy, Compiler: CompilerGC}
	if strategy == StrategyBaseline {
		cfg.Flags = "all=-N -l"
	}

	return cfg
}

// ResolveBinary returns the expected worker path for a strategy given the
// binaries directory.
func ResolveBinary(binDir, strategy string) string {
	return filepath.Join(binDir, "kernelworker-"+strategy)
}

// BuildArgs returns the go command arguments that produce the worker binary.
func BuildArgs(cfg BuildConfig) ([]string, error) {
	args := []string{"build"}

	switch cfg.Compiler {
	case "", CompilerGC:
		if cfg.Flags != "" {
			args = append(args, "-gcflags="+cfg.Flags)
		}
	case CompilerGCCGO:
		args = append(args, "-compiler="+CompilerGCCGO)
		if cfg.Flags != "" {
			args = append(args, "-gccgoflags="+cfg.Flags)
		}
	default:
		return nil, fmt.Errorf("unknown compiler %q", cfg.Compiler)
	}

	args = append(args, "-o", ResolveBinary(cfg.BinDir, cfg.Strategy), WorkerPackage)

	return args, nil
}

// Build compiles the worker binary for the given strategy.
func Build(ctx context.Context, logger *slog.Logger, cfg BuildConfig) (string, error) {
	args, err := BuildArgs(cfg)
	if err != nil {
		return "", fmt.Errorf("build %s: %w", cfg.Strategy, err)
	}

	binPath := ResolveBinary(cfg.BinDir, cfg.Strategy)

	if err := os.MkdirAll(cfg.BinDir, 0o755); err != nil {
		return "", fmt.Errorf("create bin dir %s: %w", cfg.BinDir, err)
	}

	logger.InfoContext(ctx, "building worker",
		slog.String("strategy", cfg.Strategy),
		slog.String("compiler", cfg.Compiler),
		slog.String("flags", cfg.Flags),
		slog.String("source_dir", cfg.SourceDir),
	)

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = cfg.SourceDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build %s: %w", cfg.Strategy, err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"build %s: binary not found at %s", cfg.Strategy, binPath,
		)
	}

	logger.InfoContext(ctx, "worker built",
		slog.String("strategy", cfg.Strategy),
		slog.String("binary", binPath),
	)

	return binPath, nil
}

// CommandConfig holds the resolved command, extra arguments, and
// environment variables needed to run a worker binary.
type CommandConfig struct {
	Binary    string
	ExtraArgs []string
	Env       []string
}

// WrapCommand returns the exec configuration needed to run a worker. With no
// wrapper the worker runs directly; otherwise the wrapper command is run with
// the worker path appended to its arguments.
func WrapCommand(wrapper []string, binPath string) CommandConfig {
	serve := []string{"-serve"}

	if len(wrapper) == 0 {
		return CommandConfig{Binary: binPath, ExtraArgs: serve}
	}

	args := make([]string, 0, len(wrapper)+len(serve))
	args = append(args, wrapper[1:]...)
	args = append(args, binPath)
	args = append(args, serve...)

	return CommandConfig{Binary: wrapper[0], ExtraArgs: args}
}
