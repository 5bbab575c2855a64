// Package workload decides which kernels run and with which parameters. A
// workload is an ordered list of descriptors, one per enabled kernel, and can
// be written to and read back from a JSONL plan file.
package workload

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/weiihann/kernelbench/kernel"
)

// ErrUnknownProfile is returned by Lookup for an unregistered profile name.
var ErrUnknownProfile = errors.New("unknown profile")

// Descriptor pairs a kernel with the parameters it is invoked with.
type Descriptor struct {
	Kernel kernel.Kernel
	Params []uint32
}

// String renders the descriptor as id(name=value, ...).
func (d Descriptor) String() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		name := fmt.Sprintf("p%d", i)
		if i < len(d.Kernel.Params) {
			name = d.Kernel.Params[i]
		}

		parts[i] = fmt.Sprintf("%s=%d", name, p)
	}

	return d.Kernel.ID + "(" + strings.Join(parts, ", ") + ")"
}

// Profile is a named set of default parameters, keyed by kernel id.
type Profile struct {
	Name   string
	Params map[string][]uint32
}

// Full is the reference workload. Every kernel runs long enough for timer
// resolution to be irrelevant.
var Full = Profile{
	Name: "full",
	Params: map[string][]uint32{
		"fibonacci":   {46},
		"mandelbrot":  {1920, 1080, 8},
		"nbody":       {100000000},
		"sieve":       {1000000},
		"raytracer":   {720, 480, 16},
		"flocking":    {1000, 1000},
		"polynomials": {10000000},
		"particles":   {1000, 10000000},
		"arcfour":     {10000000},
		"seahash":     {1000000},
		"radix":       {1000000},
	},
}

// Quick is a scaled-down workload for smoke runs.
var Quick = Profile{
	Name: "quick",
	Params: map[string][]uint32{
		"fibonacci":   {25},
		"mandelbrot":  {192, 108, 1},
		"nbody":       {100000},
		"sieve":       {10000},
		"raytracer":   {72, 48, 2},
		"flocking":    {100, 50},
		"polynomials": {100000},
		"particles":   {1000, 10000},
		"arcfour":     {100000},
		"seahash":     {1000},
		"radix":       {10000},
	},
}

// Profiles returns the built-in profiles.
func Profiles() []Profile {
	return []Profile{Full, Quick}
}

// Lookup returns the built-in profile with the given name.
func Lookup(name string) (Profile, error) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, nil
		}
	}

	return Profile{}, fmt.Errorf("%w %q", ErrUnknownProfile, name)
}

// Config selects kernels and parameters for a workload.
type Config struct {
	Profile Profile
	// Overrides replace the profile parameters of individual kernels.
	Overrides map[string][]uint32
	// Enabled reports whether a kernel takes part. Nil enables every kernel.
	Enabled func(id string) bool
}

// Build returns one descriptor per enabled kernel in table order.
func Build(cfg Config) ([]Descriptor, error) {
	for _, id := range slices.Sorted(maps.Keys(cfg.Overrides)) {
		if _, err := kernel.Lookup(id); err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
	}

	descriptors := make([]Descriptor, 0, len(kernel.All()))

	for _, k := range kernel.All() {
		if cfg.Enabled != nil && !cfg.Enabled(k.ID) {
			continue
		}

		params, ok := cfg.Overrides[k.ID]
		if !ok {
			params, ok = cfg.Profile.Params[k.ID]
		}

		if !ok {
			return nil, fmt.Errorf("profile %q has no parameters for %s",
				cfg.Profile.Name, k.ID)
		}

		if err := k.Check(params); err != nil {
			return nil, err
		}

		descriptors = append(descriptors, Descriptor{
			Kernel: k,
			Params: slices.Clone(params),
		})
	}

	return descriptors, nil
}

// entry is one line of a plan file.
type entry struct {
	Kernel string   `json:"kernel"`
	Params []uint32 `json:"params"`
}

// Write encodes descriptors to w as JSONL, one per line.
func Write(w io.Writer, descriptors []Descriptor) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, d := range descriptors {
		if err := enc.Encode(entry{Kernel: d.Kernel.ID, Params: d.Params}); err != nil {
			return fmt.Errorf("encode %s: %w", d.Kernel.ID, err)
		}
	}

	return nil
}

// Read decodes a JSONL plan written by Write. Entries may appear in any
// order but each kernel at most once; the result is in table order.
func Read(r io.Reader) ([]Descriptor, error) {
	byID := make(map[string][]uint32)

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++

		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var e entry
		if err := json.Unmarshal(text, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if _, err := kernel.Lookup(e.Kernel); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if _, dup := byID[e.Kernel]; dup {
			return nil, fmt.Errorf("line %d: duplicate kernel %s", line, e.Kernel)
		}

		byID[e.Kernel] = e.Params
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	return Build(Config{
		Profile: Profile{Name: "plan", Params: byID},
		Enabled: func(id string) bool {
			_, ok := byID[id]
			return ok
		},
	})
}
