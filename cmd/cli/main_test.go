package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "1200"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1200}, ids)

	ids, err = parseIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, bad := range []string{"0", "-2", "x"} {
		_, err := parseIDs([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID([]string{"42", "extra"}, "usage")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = parseID(nil, "salami audio <id>")
	assert.ErrorContains(t, err, "salami audio <id>")
}
