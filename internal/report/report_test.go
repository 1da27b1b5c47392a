package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
)

func testResultSet() *decomp.ResultSet {
	return &decomp.ResultSet{
		Economy:  "CA",
		Method:   decomp.MethodTornqvist,
		BaseYear: 1961,
		Window:   2,
		Rows: []decomp.ResultRow{
			{
				Period:         1962,
				Aggregate:      0.02,
				Within:         0.015,
				Structural:     0.003,
				Reallocation:   0.002,
				WithinFixed:    0.015,
				AggregateLevel: 102,
				WithinLevel:    101.5,
			},
			{
				Period:            1963,
				Aggregate:         0.01,
				Within:            0.008,
				Structural:        0.001,
				Reallocation:      0.001,
				WithinFixed:       0.009,
				SmoothedAggregate: decomp.Obs{Value: 0.015, Valid: true},
				AggregateLevel:    103,
				WithinLevel:       102.3,
			},
		},
		Warnings: []string{"decomp: data gap for industry 23 at period 1963"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testResultSet()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "period", records[0][0])
	assert.Equal(t, "within_level", records[0][8])
	assert.Equal(t, "1962", records[1][0])
	assert.Equal(t, "0.02", records[1][1])
	// Absent smoothed value is empty, not zero
	assert.Equal(t, "", records[1][6])
	assert.Equal(t, "0.015", records[2][6])
}

func TestExportFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, ExportFile(path, testResultSet()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "period,aggregate,"))
}

func TestExportFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, ExportFile(path, testResultSet()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	sheet := f.Sheets[0]
	assert.Equal(t, "decomposition", sheet.Name)
	assert.Equal(t, "period", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "1962", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "0.02", sheet.Rows[1].Cells[1].String())

	warnings := f.Sheets[1]
	assert.Equal(t, "warnings", warnings.Name)
	assert.Contains(t, warnings.Rows[0].Cells[0].String(), "data gap")
}

func TestExportFile_XLSX_NoWarningsSheet(t *testing.T) {
	rs := testResultSet()
	rs.Warnings = nil

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, ExportFile(path, rs))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 1)
}

func TestExportFile_UnsupportedFormat(t *testing.T) {
	err := ExportFile("out.pdf", testResultSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, testResultSet()))

	out := buf.String()
	assert.Contains(t, out, "economy CA, method tornqvist, 2 transitions (1962-1963)")
	assert.Contains(t, out, "aggregate 0.0150")
	assert.Contains(t, out, "base 1961 = 100")
	assert.Contains(t, out, "1 data gap warning")
	assert.Contains(t, out, "industry 23")
}

func TestWriteSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	rs := &decomp.ResultSet{Economy: "US", Method: decomp.MethodLogDiff}
	require.NoError(t, WriteSummary(&buf, rs))
	assert.Contains(t, buf.String(), "no transitions")
}
