package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape(t *testing.T) {
	got, err := MarshalNoEscape(map[string]string{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, string(got))
}

func TestEqual(t *testing.T) {
	type v struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	assert.True(t, Equal(v{A: "x", B: 1}, v{A: "x", B: 1}))
	assert.False(t, Equal(v{A: "x"}, v{A: "y"}))
	assert.True(t, Equal(nil, nil))
}

func TestClone(t *testing.T) {
	src := map[string][]int{"a": {1, 2}}
	dst, err := Clone(src)
	require.NoError(t, err)
	dst["a"][0] = 99
	assert.Equal(t, 1, src["a"][0], "clone does not share backing arrays")
}
