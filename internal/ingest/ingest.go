package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hec-growth-lab/tfp-cli/internal/fetcher"
	"github.com/hec-growth-lab/tfp-cli/internal/panel"
)

// Options configures a source-table read.
type Options struct {
	// Economy selects the built-in mapping set ("CA" or "US").
	Economy string
	// MappingFile optionally overlays a YAML mapping on the built-in set.
	MappingFile string
	// Charset decodes legacy extracts (e.g. "windows-1252"). Empty means the
	// input is already UTF-8.
	Charset string
	// SheetName selects the XLSX sheet; empty means the first sheet.
	SheetName string
}

// mapping resolves the effective mapping for the options.
func (o Options) mapping() (*Mapping, error) {
	m, err := DefaultMapping(o.Economy)
	if err != nil {
		return nil, err
	}
	if o.MappingFile != "" {
		overlay, err := LoadMapping(o.MappingFile)
		if err != nil {
			return nil, err
		}
		m.Merge(overlay)
	}
	return m, nil
}

// ReadFile parses a source table into panel rows, dispatching on the file
// extension (.csv or .xlsx).
func ReadFile(ctx context.Context, path string, opts Options) ([]panel.Row, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f, opts)
	case ".xlsx":
		return ReadXLSXFile(path, opts)
	default:
		return nil, eris.Errorf("ingest: unsupported input format %q", ext)
	}
}

// ReadCSV parses a CSV source table. Both layouts are accepted: the wide
// layout with one row per (industry, period) carrying all nine value
// columns, and the long StatCan layout with one row per (industry, period,
// variable).
func ReadCSV(ctx context.Context, r io.Reader, opts Options) ([]panel.Row, error) {
	m, err := opts.mapping()
	if err != nil {
		return nil, err
	}

	if opts.Charset != "" {
		r, err = fetcher.DecodeCharset(opts.Charset, r)
		if err != nil {
			return nil, err
		}
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var header []string
	select {
	case header = <-headerCh:
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
		return nil, eris.New("ingest: empty input")
	}

	var records [][]string
	for row := range rowCh {
		records = append(records, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	return parseTable(header, records, m)
}

// ReadXLSXFile parses an XLSX source table in either layout.
func ReadXLSXFile(path string, opts Options) ([]panel.Row, error) {
	m, err := opts.mapping()
	if err != nil {
		return nil, err
	}

	headerCh := make(chan []string, 1)
	records, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		SheetName: opts.SheetName,
		SkipRows:  1,
		HeaderCh:  headerCh,
	})
	if err != nil {
		return nil, err
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.Errorf("ingest: %s has no header row", path)
	}

	return parseTable(header, records, m)
}

// parseTable routes records to the wide or long parser based on the header,
// then applies the mapping.
func parseTable(header []string, records [][]string, m *Mapping) ([]panel.Row, error) {
	cols, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var raws []rawRow
	if cols.isLong() {
		raws, err = parseLong(cols, records)
	} else {
		raws, err = parseWide(cols, records)
	}
	if err != nil {
		return nil, err
	}

	rows := applyMapping(raws, m)
	zap.L().Info("ingest: parsed source table",
		zap.Int("records", len(records)),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// rawRow is an observation before the industry mapping is applied.
type rawRow struct {
	label  string
	period panel.Period
	cell   panel.Cell
}

// applyMapping drops excluded labels, maps labels to codes, and collapses
// observations that land on the same (code, period). Nominal values are
// summed; quantity and price indices are combined as a gross-output-weighted
// mean.
func applyMapping(raws []rawRow, m *Mapping) []panel.Row {
	type key struct {
		ind panel.Industry
		per panel.Period
	}
	groups := make(map[key][]panel.Cell)
	order := make([]key, 0, len(raws))
	for _, raw := range raws {
		if m.dropped(raw.label) {
			continue
		}
		k := key{m.resolve(raw.label), raw.period}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], raw.cell)
	}

	sort.Slice(order, func(a, b int) bool {
		if order[a].ind != order[b].ind {
			return order[a].ind < order[b].ind
		}
		return order[a].per < order[b].per
	})

	rows := make([]panel.Row, 0, len(order))
	for _, k := range order {
		rows = append(rows, panel.Row{Industry: k.ind, Period: k.per, Cell: collapse(groups[k])})
	}
	return rows
}

// collapse combines the cells of source industries that map to one code.
func collapse(cells []panel.Cell) panel.Cell {
	if len(cells) == 1 {
		return cells[0]
	}

	var out panel.Cell
	var totalNominal float64
	for _, c := range cells {
		out.NominalOutput += c.NominalOutput
		out.CapitalComp += c.CapitalComp
		out.LaborComp += c.LaborComp
		out.IntermediateExp += c.IntermediateExp
		totalNominal += c.NominalOutput
	}

	// Index columns cannot be summed; weight them by each source industry's
	// share of the combined gross output.
	for _, c := range cells {
		w := 1.0 / float64(len(cells))
		if totalNominal > 0 {
			w = c.NominalOutput / totalNominal
		}
		out.RealOutput += w * c.RealOutput
		out.CapitalIndex += w * c.CapitalIndex
		out.LaborIndex += w * c.LaborIndex
		out.IntermediateIndex += w * c.IntermediateIndex
		out.OutputPrice += w * c.OutputPrice
	}
	return out
}
