package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStringAs_String(t *testing.T) {
	got, err := StringAs[string]("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestStringAs_Bool(t *testing.T) {
	got, err := StringAs[bool]("true")
	require.NoError(t, err)
	assert.True(t, got)

	_, err = StringAs[bool]("maybe")
	assert.ErrorContains(t, err, "parse content as bool")
}

func TestStringAs_Numbers(t *testing.T) {
	f, err := StringAs[float64]("3.14")
	require.NoError(t, err)
	assert.Equal(t, 3.14, f)

	i, err := StringAs[int]("-42")
	require.NoError(t, err)
	assert.Equal(t, -42, i)

	u, err := StringAs[uint]("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), u)

	_, err = StringAs[int]("4.5")
	assert.ErrorContains(t, err, "parse content as int")
}

func TestStringAs_Struct(t *testing.T) {
	got, err := StringAs[record](`{"name":"a","count":2}`)
	require.NoError(t, err)
	assert.Equal(t, record{Name: "a", Count: 2}, got)
}

func TestStringAs_Slice(t *testing.T) {
	got, err := StringAs[[]record](`[{"name":"a","count":1},{"name":"b","count":2}]`)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Name)
}

// Malformed JSON is repaired before unmarshaling: single quotes, trailing
// commas and missing closers are typical LLM output defects.
func TestStringAs_RepairsMalformedJSON(t *testing.T) {
	got, err := StringAs[record](`{'name': 'a', 'count': 3,}`)
	require.NoError(t, err)
	assert.Equal(t, record{Name: "a", Count: 3}, got)
}

func TestAnyJSON(t *testing.T) {
	got, err := AnyJSON(`{"k":[1,2]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": []any{float64(1), float64(2)}}, got)
}

func TestAnyJSON_Repairs(t *testing.T) {
	got, err := AnyJSON(`{"k": 1,}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": float64(1)}, got)
}
