// Package kernel holds the deterministic computational kernels measured by
// kernelbench. Every kernel is a single canonical Go function; execution
// strategies differ only in how that code is compiled and reached.
//
// Floating point products that feed a sum are wrapped in an explicit
// conversion. Go permits a compiler to fuse x*y+z into one instruction
// unless the product is explicitly converted, and fusion would make results
// depend on the compiler flags a strategy was built with.
package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKernel is returned by Lookup for an id not in the table.
	ErrUnknownKernel = errors.New("unknown kernel")

	// ErrParamCount is returned when a kernel receives the wrong number of
	// workload parameters.
	ErrParamCount = errors.New("wrong parameter count")
)

// Kernel describes one benchmark routine.
type Kernel struct {
	// ID is the stable identifier used in configuration and on the wire.
	ID string

	// Name is the display name used in reports.
	Name string

	// Params names the unsigned workload parameters, in call order.
	Params []string

	// Result is the kind of value the kernel returns.
	Result Kind

	call func(params []uint32) Value
}

// Check validates params against the kernel's parameter list.
func (k Kernel) Check(params []uint32) error {
	if len(params) != len(k.Params) {
		return fmt.Errorf("%s: %w: got %d, want %d (%v)",
			k.ID, ErrParamCount, len(params), len(k.Params), k.Params)
	}

	return nil
}

// Call runs the kernel. Params must already have passed Check.
func (k Kernel) Call(params []uint32) Value {
	return k.call(params)
}

// Invoke checks params and runs the kernel.
func (k Kernel) Invoke(params []uint32) (Value, error) {
	if err := k.Check(params); err != nil {
		return Value{}, err
	}

	return k.call(params), nil
}

var table = []Kernel{
	{
		ID: "fibonacci", Name: "Fibonacci",
		Params: []string{"number"}, Result: KindUint32,
		call: func(p []uint32) Value { return Uint32Value(Fibonacci(p[0])) },
	},
	{
		ID: "mandelbrot", Name: "Mandelbrot",
		Params: []string{"width", "height", "iterations"}, Result: KindFloat32,
		call: func(p []uint32) Value { return Float32Value(Mandelbrot(p[0], p[1], p[2])) },
	},
	{
		ID: "nbody", Name: "NBody",
		Params: []string{"advancements"}, Result: KindFloat64,
		call: func(p []uint32) Value { return Float64Value(NBody(p[0])) },
	},
	{
		ID: "sieve", Name: "Sieve of Eratosthenes",
		Params: []string{"iterations"}, Result: KindUint32,
		call: func(p []uint32) Value { return Uint32Value(SieveOfEratosthenes(p[0])) },
	},
	{
		ID: "raytracer", Name: "Pixar Raytracer",
		Params: []string{"width", "height", "samples"}, Result: KindFloat32,
		call: func(p []uint32) Value { return Float32Value(PixarRaytracer(p[0], p[1], p[2])) },
	},
	{
		ID: "flocking", Name: "Fireflies Flocking",
		Params: []string{"boids", "lifetime"}, Result: KindFloat32,
		call: func(p []uint32) Value { return Float32Value(FirefliesFlocking(p[0], p[1])) },
	},
	{
		ID: "polynomials", Name: "Polynomials",
		Params: []string{"iterations"}, Result: KindFloat32,
		call: func(p []uint32) Value { return Float32Value(Polynomials(p[0])) },
	},
	{
		ID: "particles", Name: "Particle Kinematics",
		Params: []string{"quantity", "iterations"}, Result: KindFloat32,
		call: func(p []uint32) Value { return Float32Value(ParticleKinematics(p[0], p[1])) },
	},
	{
		ID: "arcfour", Name: "Arcfour",
		Params: []string{"iterations"}, Result: KindInt32,
		call: func(p []uint32) Value { return Int32Value(Arcfour(p[0])) },
	},
	{
		ID: "seahash", Name: "Seahash",
		Params: []string{"iterations"}, Result: KindUint64,
		call: func(p []uint32) Value { return Uint64Value(Seahash(p[0])) },
	},
	{
		ID: "radix", Name: "Radix",
		Params: []string{"iterations"}, Result: KindInt32,
		call: func(p []uint32) Value { return Int32Value(Radix(p[0])) },
	},
}

// All returns every kernel in benchmark order.
func All() []Kernel {
	out := make([]Kernel, len(table))
	copy(out, table)

	return out
}

// IDs returns the kernel ids in benchmark order.
func IDs() []string {
	ids := make([]string, len(table))
	for i, k := range table {
		ids[i] = k.ID
	}

	return ids
}

// Lookup returns the kernel with the given id.
func Lookup(id string) (Kernel, error) {
	for _, k := range table {
		if k.ID == id {
			return k, nil
		}
	}

	return Kernel{}, fmt.Errorf("%w %q", ErrUnknownKernel, id)
}
