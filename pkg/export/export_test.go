package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Final Grades",
		Headers: []string{"Student ID", "Student Name", "Course Code", "Final Grade"},
		Rows: [][]string{
			{"001", "Amy", "CP317", "72.0"},
			{"002", "Bob, Jr", "MA101", "88.5"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student ID,Student Name,Course Code,Final Grade\n001,Amy,CP317,72.0\n002,\"Bob, Jr\",MA101,88.5\n", string(out))
}

func TestExportersRejectBadShape(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)

	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"003"})
	_, err = NewCSVExporter().Render(data)
	require.Error(t, err)
	_, err = NewPDFExporter().Render(data)
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, []string{fmt.Sprintf("%03d", i+3), "Student", "CP317", "50.0"})
	}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
