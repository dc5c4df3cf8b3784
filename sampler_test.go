package gpoe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleInputsDistinctThenPads(t *testing.T) {
	calls := 0
	gen := func() any {
		calls++
		if calls > 3 {
			return 3
		}
		return calls
	}
	out, err := SampleInputs(map[string]func() any{"int": gen}, nil, 5)
	require.NoError(t, err)

	vals := out["int"]
	require.Len(t, vals, 5)
	require.Equal(t, []any{1, 2, 3}, vals[:3])
	// Once the generator runs dry the suite is padded by repetition.
	require.Equal(t, 1, vals[3])
	require.Equal(t, 2, vals[4])
}

func TestSampleInputsRejectsNonPositiveCount(t *testing.T) {
	_, err := SampleInputs(nil, nil, 0)
	require.Error(t, err)
}
