package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Appointments",
		Headers: []string{"start_at", "patient_name"},
		Rows: [][]string{
			{"2025-10-27T09:00:00Z", "Jane Doe"},
			{"2025-10-27T09:20:00Z", "Ann, Lee"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "start_at,patient_name\n2025-10-27T09:00:00Z,Jane Doe\n2025-10-27T09:20:00Z,\"Ann, Lee\"\n", string(out))
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty := sampleDataset()
	empty.Rows = nil
	out, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"only-one"})
	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestFor(t *testing.T) {
	r, err := For(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())

	r, err = For("")
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Extension())

	_, err = For("xlsx")
	assert.Error(t, err)
}
