package tsv

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPreservesOrder(t *testing.T) {
	in := "0.0\tSilence\n0.464399092\tA\n\n22.5\tB\textra\n401.2\tend\n"

	rows, err := Read(strings.NewReader(in), false)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, Row{Time: 0, Label: "Silence", Line: 1}, rows[0])
	assert.Equal(t, 0.464399092, rows[1].Time)
	assert.Equal(t, "B", rows[2].Label)
	assert.Equal(t, 4, rows[2].Line)
	assert.Equal(t, "end", rows[3].Label)
}

func TestReadRejectsSingleColumn(t *testing.T) {
	_, err := Read(strings.NewReader("1.0\tA\n2.0\n"), false)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
}

func TestReadBareTimes(t *testing.T) {
	rows, err := Read(strings.NewReader("1.5\n3\n"), true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3.0, rows[1].Time)
	assert.Empty(t, rows[1].Label)
}

func TestReadInvalidTime(t *testing.T) {
	_, err := Read(strings.NewReader("abc\tA\n"), false)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, pe.Error(), "invalid time")
}

func TestWriteReadRoundTrip(t *testing.T) {
	rows := []Row{
		{Time: 0, Label: "Silence"},
		{Time: 0.1 + 0.2, Label: "A'"},
		{Time: 12.345678901234, Label: "verse \"one\""},
		{Time: 60, Label: " leading space"},
		{Time: 61.5, Label: ""},
		{Time: 1e-7, Label: "tiny"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))

	got, err := Read(&buf, false)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Time, got[i].Time, "row %d", i)
		assert.Equal(t, rows[i].Label, got[i].Label, "row %d", i)
	}
}
