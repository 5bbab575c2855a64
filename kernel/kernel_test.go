package kernel

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOrder(t *testing.T) {
	want := []string{
		"fibonacci", "mandelbrot", "nbody", "sieve", "raytracer", "flocking",
		"polynomials", "particles", "arcfour", "seahash", "radix",
	}

	assert.Equal(t, want, IDs())

	for _, k := range All() {
		assert.NotEmpty(t, k.Name, k.ID)
		assert.NotEmpty(t, k.Params, k.ID)
		assert.NotNil(t, k.call, k.ID)
	}
}

func TestLookup(t *testing.T) {
	k, err := Lookup("nbody")
	require.NoError(t, err)
	assert.Equal(t, "NBody", k.Name)
	assert.Equal(t, KindFloat64, k.Result)

	_, err = Lookup("quicksort")
	assert.True(t, errors.Is(err, ErrUnknownKernel))
}

func TestInvokeChecksParams(t *testing.T) {
	k, err := Lookup("mandelbrot")
	require.NoError(t, err)

	_, err = k.Invoke([]uint32{4, 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParamCount))

	v, err := k.Invoke([]uint32{4, 4, 1})
	require.NoError(t, err)
	assert.Equal(t, KindFloat32, v.Kind)
}

func TestInvokeKindsMatchTable(t *testing.T) {
	params := map[string][]uint32{
		"fibonacci":   {5},
		"mandelbrot":  {4, 3, 1},
		"nbody":       {3},
		"sieve":       {1},
		"raytracer":   {2, 2, 1},
		"flocking":    {4, 2},
		"polynomials": {1},
		"particles":   {3, 3},
		"arcfour":     {1},
		"seahash":     {1},
		"radix":       {1},
	}

	for _, k := range All() {
		t.Run(k.ID, func(t *testing.T) {
			p, ok := params[k.ID]
			require.True(t, ok)

			v, err := k.Invoke(p)
			require.NoError(t, err)
			assert.Equal(t, k.Result, v.Kind)
		})
	}
}

// Every kernel accepts zero for every parameter without panicking.
func TestZeroParams(t *testing.T) {
	for _, k := range All() {
		t.Run(k.ID, func(t *testing.T) {
			params := make([]uint32, len(k.Params))

			assert.NotPanics(t, func() {
				_, err := k.Invoke(params)
				assert.NoError(t, err)
			})
		})
	}
}

// Invocations are independent: generator state and scratch memory never
// carry over from one call to the next.
func TestRepeatedInvocationsAgree(t *testing.T) {
	params := map[string][]uint32{
		"fibonacci":   {15},
		"mandelbrot":  {16, 12, 2},
		"nbody":       {50},
		"sieve":       {3},
		"raytracer":   {4, 3, 1},
		"flocking":    {20, 5},
		"polynomials": {7},
		"particles":   {10, 10},
		"arcfour":     {4},
		"seahash":     {1},
		"radix":       {5},
	}

	for _, k := range All() {
		t.Run(k.ID, func(t *testing.T) {
			first, err := k.Invoke(params[k.ID])
			require.NoError(t, err)

			second, err := k.Invoke(params[k.ID])
			require.NoError(t, err)

			assert.True(t, first.Equal(second), "%s != %s", first, second)
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Uint32Value(89), "89"},
		{Int32Value(-5), "-5"},
		{Uint64Value(0x9f29144e3dab7d8b), "0x9f29144e3dab7d8b"},
		{Float32Value(2.5), "2.5"},
		{Float64Value(-0.25), "-0.25"},
		{Value{}, "<invalid>"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestValueFloat64(t *testing.T) {
	assert.Equal(t, -5.0, Int32Value(-5).Float64())
	assert.Equal(t, 2.5, Float32Value(2.5).Float64())
	assert.True(t, math.IsNaN(Value{}.Float64()))
}

func TestValueJSONKeepsBits(t *testing.T) {
	in := Float64Value(0.010450003850995555)

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"float64"`)

	var out Value
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, in.Equal(out))

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"complex128","bits":1}`), &out))
}

func TestZeroValueJSON(t *testing.T) {
	data, err := json.Marshal(Value{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"","bits":0}`, string(data))

	var out Value
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, Value{}, out)
}
