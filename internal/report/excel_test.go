package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.xlsx")
	require.NoError(t, WriteExcel(sampleResult(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Issues"}, f.GetSheetList())

	invoiceID, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2023-001", invoiceID)

	total, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "7020.00", total)

	title, err := f.GetCellValue("Issues", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Maximum Amount Exceeded", title)

	severity, err := f.GetCellValue("Issues", "D2")
	require.NoError(t, err)
	assert.Equal(t, "high", severity)
}

func TestWriteExcelNoIssues(t *testing.T) {
	result := sampleResult()
	result.Issues = nil

	path := filepath.Join(t.TempDir(), "clean.xlsx")
	require.NoError(t, WriteExcel(result, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Issues", "A1")
	require.NoError(t, err)
	assert.Equal(t, "#", header)
}
