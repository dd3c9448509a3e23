package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Admission No", "Full Name", "Class"},
		Rows: []map[string]string{
			{"Admission No": "A-001", "Full Name": "Jane Doe", "Class": "X-A"},
			{"Admission No": "A-002", "Full Name": `John "JJ" Doe`, "Class": "X-B"},
		},
	}
}

func TestCSVExporterRoundTrip(t *testing.T) {
	data := sampleDataset()
	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, data.Headers, records[0])
	assert.Equal(t, "Jane Doe", records[1][1])
	assert.Equal(t, `John "JJ" Doe`, records[2][1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestTextExporterTabDelimited(t *testing.T) {
	payload, err := NewTextExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Admission No\tFull Name\tClass", lines[0])
	assert.Equal(t, 3, len(strings.Split(lines[1], "\t")))
}

func TestTextExporterSanitizesEmbeddedTabs(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name"},
		Rows:    []map[string]string{{"Name": "tab\there\nnewline"}},
	}
	payload, err := NewTextExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "tab here newline", lines[1])
}

func TestPDFExporterRendersDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "Student Directory")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
