// Package report exports decomposition results to CSV and XLSX and renders
// the run summary printed by the CLI.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
)

// ExportFile writes the result table to path, dispatching on the extension
// (.csv or .xlsx).
func ExportFile(path string, rs *decomp.ResultSet) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "report: create %s", path)
		}
		if err := WriteCSV(f, rs); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		return eris.Wrapf(f.Close(), "report: close %s", path)
	case ".xlsx":
		return WriteXLSX(path, rs)
	default:
		return eris.Errorf("report: unsupported export format %q", ext)
	}
}

// WriteCSV writes the columnar result table as CSV.
func WriteCSV(w io.Writer, rs *decomp.ResultSet) error {
	cw := csv.NewWriter(w)

	header, rows := rs.Table()
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteXLSX writes the result table to an XLSX workbook. Warnings, when
// present, go on a second sheet.
func WriteXLSX(path string, rs *decomp.ResultSet) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("decomposition")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header, rows := rs.Table()
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, row := range rows {
		xr := sheet.AddRow()
		for _, cell := range row {
			xr.AddCell().SetString(cell)
		}
	}

	if len(rs.Warnings) > 0 {
		ws, err := f.AddSheet("warnings")
		if err != nil {
			return eris.Wrap(err, "report: add warnings sheet")
		}
		for _, w := range rs.Warnings {
			ws.AddRow().AddCell().SetString(w)
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}
