package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Title", "Branch"},
		Rows: []map[string]string{
			{"Title": "DS Notes, Unit 1", "Branch": "CSE"},
			{"Title": strings.Repeat("x", 80), "Branch": "ECE"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(), "")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,Branch", lines[0])
	assert.Equal(t, `"DS Notes, Unit 1",CSE`, lines[1])
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "CampusHub Resources")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short "))
	long := truncate(strings.Repeat("a", 60))
	assert.Len(t, long, maxCellRunes)
	assert.True(t, strings.HasSuffix(long, "..."))
}
