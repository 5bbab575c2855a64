// Package config loads benchmark run settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/kernelbench/harness"
	"github.com/weiihann/kernelbench/kernel"
	"github.com/weiihann/kernelbench/workload"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is a full run configuration. An empty Format picks table output on
// a terminal and markdown otherwise.
type Config struct {
	Profile     string              `yaml:"profile" validate:"required,profile"`
	PlanFile    string              `yaml:"plan_file"`
	Strategies  map[string]bool     `yaml:"strategies" validate:"dive,keys,strategy,endkeys"`
	Kernels     map[string]bool     `yaml:"kernels" validate:"dive,keys,kernel,endkeys"`
	Params      map[string][]uint32 `yaml:"params" validate:"dive,keys,kernel,endkeys"`
	Native      Worker              `yaml:"native"`
	Baseline    Worker              `yaml:"baseline"`
	BinDir      string              `yaml:"bin_dir" validate:"required"`
	SourceDir   string              `yaml:"source_dir" validate:"required"`
	SkipBuild   bool                `yaml:"skip_build"`
	Format      string              `yaml:"format" validate:"omitempty,oneof=markdown table json"`
	ResultsFile string              `yaml:"results_file"`
	MetricsFile string              `yaml:"metrics_file"`
	MaxULP      uint                `yaml:"max_ulp"`
}

// Worker configures how a worker-backed strategy is built and launched.
type Worker struct {
	Compiler string `yaml:"compiler" validate:"oneof=gc gccgo"`
	Flags    string `yaml:"flags"`
	// Binary is a prebuilt worker; when set the worker is not built.
	Binary string `yaml:"binary"`
	// Wrapper is prepended to the worker command line, e.g. taskset.
	Wrapper []string `yaml:"wrapper"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("kernel", validateKernel)
	_ = validate.RegisterValidation("strategy", validateStrategy)
	_ = validate.RegisterValidation("profile", validateProfile)
}

func validateKernel(fl validator.FieldLevel) bool {
	_, err := kernel.Lookup(fl.Field().String())
	return err == nil
}

func validateStrategy(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	for _, known := range harness.KnownStrategies() {
		if id == known {
			return true
		}
	}

	return false
}

func validateProfile(fl validator.FieldLevel) bool {
	_, err := workload.Lookup(fl.Field().String())
	return err == nil
}

// Default returns the configuration used when no file is given: the full
// profile, every kernel and every strategy.
func Default() Config {
	strategies := make(map[string]bool)
	for _, id := range harness.KnownStrategies() {
		strategies[id] = true
	}

	native := harness.DefaultBuildConfig(harness.StrategyNative)
	baseline := harness.DefaultBuildConfig(harness.StrategyBaseline)

	return Config{
		Profile:    workload.Full.Name,
		Strategies: strategies,
		Native:     Worker{Compiler: native.Compiler, Flags: native.Flags},
		Baseline:   Worker{Compiler: baseline.Compiler, Flags: baseline.Flags},
		BinDir:     "bin",
		SourceDir:  ".",
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field values and cross-field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}

			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}

		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	for id, params := range c.Params {
		k, _ := kernel.Lookup(id)
		if err := k.Check(params); err != nil {
			return fmt.Errorf("%w: params: %w", ErrInvalid, err)
		}
	}

	return nil
}

// StrategyEnabled reports whether a strategy takes part in the run.
func (c Config) StrategyEnabled(id string) bool {
	return c.Strategies[id]
}

// KernelEnabled reports whether a kernel takes part in the run. Kernels not
// listed are enabled.
func (c Config) KernelEnabled(id string) bool {
	enabled, ok := c.Kernels[id]
	return !ok || enabled
}

// Worker returns the worker settings for a process-backed strategy.
func (c Config) Worker(strategy string) (Worker, bool) {
	switch strategy {
	case harness.StrategyNative:
		return c.Native, true
	case harness.StrategyBaseline:
		return c.Baseline, true
	default:
		return Worker{}, false
	}
}

// Workload builds the descriptors this configuration selects. A plan file,
// when set, replaces the profile.
func (c Config) Workload() ([]workload.Descriptor, error) {
	if c.PlanFile != "" {
		f, err := os.Open(c.PlanFile)
		if err != nil {
			return nil, fmt.Errorf("open plan %s: %w", c.PlanFile, err)
		}
		defer f.Close()

		descriptors, err := workload.Read(f)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", c.PlanFile, err)
		}

		enabled := descriptors[:0]
		for _, d := range descriptors {
			if c.KernelEnabled(d.Kernel.ID) {
				enabled = append(enabled, d)
			}
		}

		return enabled, nil
	}

	profile, err := workload.Lookup(c.Profile)
	if err != nil {
		return nil, err
	}

	return workload.Build(workload.Config{
		Profile:   profile,
		Overrides: c.Params,
		Enabled:   c.KernelEnabled,
	})
}
