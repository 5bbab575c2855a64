package workload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/kernelbench/kernel"
)

func TestProfilesCoverEveryKernel(t *testing.T) {
	for _, p := range Profiles() {
		for _, k := range kernel.All() {
			params, ok := p.Params[k.ID]
			require.True(t, ok, "profile %s misses %s", p.Name, k.ID)
			assert.NoError(t, k.Check(params), "profile %s kernel %s", p.Name, k.ID)
		}

		assert.Len(t, p.Params, len(kernel.All()), "profile %s", p.Name)
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("quick")
	require.NoError(t, err)
	assert.Equal(t, "quick", p.Name)

	_, err = Lookup("huge")
	require.ErrorIs(t, err, ErrUnknownProfile)
}

func TestBuildTableOrder(t *testing.T) {
	descriptors, err := Build(Config{Profile: Full})
	require.NoError(t, err)

	require.Len(t, descriptors, len(kernel.All()))

	for i, k := range kernel.All() {
		assert.Equal(t, k.ID, descriptors[i].Kernel.ID)
		assert.Equal(t, Full.Params[k.ID], descriptors[i].Params)
	}
}

func TestBuildDisabledKernelsAreSkipped(t *testing.T) {
	descriptors, err := Build(Config{
		Profile: Quick,
		Enabled: func(id string) bool { return id == "sieve" || id == "radix" },
	})
	require.NoError(t, err)

	require.Len(t, descriptors, 2)
	assert.Equal(t, "sieve", descriptors[0].Kernel.ID)
	assert.Equal(t, "radix", descriptors[1].Kernel.ID)
}

func TestBuildNothingEnabled(t *testing.T) {
	descriptors, err := Build(Config{
		Profile: Quick,
		Enabled: func(string) bool { return false },
	})
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestBuildOverrides(t *testing.T) {
	descriptors, err := Build(Config{
		Profile:   Quick,
		Overrides: map[string][]uint32{"fibonacci": {10}},
		Enabled:   func(id string) bool { return id == "fibonacci" },
	})
	require.NoError(t, err)

	require.Len(t, descriptors, 1)
	assert.Equal(t, []uint32{10}, descriptors[0].Params)
}

func TestBuildRejectsBadOverrides(t *testing.T) {
	_, err := Build(Config{
		Profile:   Quick,
		Overrides: map[string][]uint32{"mandelbrot": {10, 10}},
	})
	require.ErrorIs(t, err, kernel.ErrParamCount)

	_, err = Build(Config{
		Profile:   Quick,
		Overrides: map[string][]uint32{"quicksort": {10}},
	})
	require.ErrorIs(t, err, kernel.ErrUnknownKernel)
}

func TestBuildDoesNotAliasProfile(t *testing.T) {
	descriptors, err := Build(Config{Profile: Quick})
	require.NoError(t, err)

	descriptors[0].Params[0] = 1
	assert.Equal(t, uint32(25), Quick.Params["fibonacci"][0])
}

func TestDescriptorString(t *testing.T) {
	k, err := kernel.Lookup("mandelbrot")
	require.NoError(t, err)

	d := Descriptor{Kernel: k, Params: []uint32{640, 480, 2}}
	assert.Equal(t, "mandelbrot(width=640, height=480, iterations=2)", d.String())
}

func TestWriteRead(t *testing.T) {
	descriptors, err := Build(Config{Profile: Quick})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, descriptors))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(descriptors))
	assert.JSONEq(t, `{"kernel":"fibonacci","params":[25]}`, lines[0])

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(descriptors))

	for i := range descriptors {
		assert.Equal(t, descriptors[i].Kernel.ID, got[i].Kernel.ID)
		assert.Equal(t, descriptors[i].Params, got[i].Params)
	}
}

func TestReadRestoresTableOrder(t *testing.T) {
	plan := `{"kernel":"radix","params":[5]}

{"kernel":"fibonacci","params":[7]}
`

	got, err := Read(strings.NewReader(plan))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "fibonacci", got[0].Kernel.ID)
	assert.Equal(t, "radix", got[1].Kernel.ID)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		plan string
	}{
		{"invalid JSON", "not json\n"},
		{"unknown kernel", `{"kernel":"quicksort","params":[1]}`},
		{"duplicate", `{"kernel":"sieve","params":[1]}` + "\n" + `{"kernel":"sieve","params":[2]}`},
		{"param count", `{"kernel":"nbody","params":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.plan))
			assert.Error(t, err)
		})
	}
}
