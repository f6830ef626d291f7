package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_PreservesKeyOrder(t *testing.T) {
	args, err := ParseArgs([]byte(`{"zebra":1,"alpha":"x","mid":{"b":2,"a":1}}`))
	require.NoError(t, err)

	require.Len(t, args, 3)
	assert.Equal(t, "zebra", args[0].Key)
	assert.Equal(t, "alpha", args[1].Key)
	assert.Equal(t, "mid", args[2].Key)
}

func TestArgs_MarshalRoundTrip(t *testing.T) {
	in := Args{
		{Key: "q", Value: "weather"},
		{Key: "n", Value: int64(3)},
		{Key: "exact", Value: true},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"q":"weather","n":3,"exact":true}`, string(raw))

	out, err := ParseArgs(raw)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
}

func TestArgs_EqualIsOrderSensitive(t *testing.T) {
	a := Args{{Key: "x", Value: 1}, {Key: "y", Value: 2}}
	b := Args{{Key: "y", Value: 2}, {Key: "x", Value: 1}}

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(Args{{Key: "x", Value: int64(1)}, {Key: "y", Value: int64(2)}}))
}

func TestParseArgs_RejectsNonObject(t *testing.T) {
	_, err := ParseArgs([]byte(`[1,2,3]`))
	assert.Error(t, err)

	_, err = ParseArgs([]byte(`"text"`))
	assert.Error(t, err)
}

func TestParseArgs_EmptyAndNull(t *testing.T) {
	args, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = ParseArgs([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, args)
}

func TestParseArgs_NormalizesNumbers(t *testing.T) {
	args, err := ParseArgs([]byte(`{"count":7,"ratio":0.5}`))
	require.NoError(t, err)

	count, ok := args.Get("count")
	require.True(t, ok)
	assert.Equal(t, int64(7), count)

	ratio, ok := args.Get("ratio")
	require.True(t, ok)
	assert.Equal(t, 0.5, ratio)
}

func TestArgs_Map(t *testing.T) {
	args := Args{{Key: "a", Value: 1}, {Key: "b", Value: "two"}}
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, args.Map())
}
