package core

// export.go renders plan listings as spreadsheets.
//
// Two layouts exist. The template export carries the import vocabulary and
// no identifiers, ready to be filled and sent to import mode. The data export
// prefixes every row with its id and keeps the stored status override, so the
// file can be edited and sent back to update mode unchanged.

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the rendering of an Export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat maps a query value to a format; anything unknown is CSV.
func ParseExportFormat(s string) ExportFormat {
	if ExportFormat(s) == FormatXLSX {
		return FormatXLSX
	}
	return FormatCSV
}

// ContentType returns the MIME type of the rendered file.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension, without the dot.
func (f ExportFormat) Extension() string {
	return string(f)
}

// Export is a header plus rows of cells.
type Export struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Write renders the export in the given format.
func (e Export) Write(w io.Writer, format ExportFormat) error {
	if format == FormatXLSX {
		return e.WriteXLSX(w)
	}
	return e.WriteCSV(w)
}

// WriteCSV writes the header then every row, cells joined by ";". Cells are
// written as stored; only those that cannot be read back positionally are
// quoted (see quoteCell).
func (e Export) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeLine := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				bw.WriteByte(';')
			}
			bw.WriteString(quoteCell(c))
		}
		bw.WriteByte('\n')
	}

	writeLine(e.Header)
	for _, row := range e.Rows {
		writeLine(row)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// quoteCell wraps a cell in double quotes, doubling inner quotes, when it
// holds the delimiter or a line break or starts with a quote. Update mode
// strips exactly this wrapping, so any other cell round-trips verbatim.
func quoteCell(c string) string {
	if !strings.ContainsAny(c, ";\r\n") && !strings.HasPrefix(strings.TrimSpace(c), `"`) {
		return c
	}
	return `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
}

// WriteXLSX writes the same cells as a single-sheet workbook.
func (e Export) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.Name
	if sheet == "" {
		sheet = "planos"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}

	writeRow := func(n int, cells []string) error {
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		return sw.SetRow(cell, values)
	}

	if err := writeRow(1, e.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range e.Rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

// TemplateExport lays plans out in import order without identifiers.
func TemplateExport(plans []ActionPlan) Export {
	rows := make([][]string, len(plans))
	for i, p := range plans {
		row := make([]string, len(PlanImportColumns))
		for j, spec := range PlanImportColumns {
			row[j] = planField(p, spec.DBColumn)
		}
		rows[i] = row
	}
	return Export{Name: "planos", Header: ImportHeader(), Rows: rows}
}

// DataExport lays plans out in update order: id first, then import order.
func DataExport(plans []ActionPlan) Export {
	rows := make([][]string, len(plans))
	for i, p := range plans {
		row := make([]string, len(PlanUpdateColumns))
		for j, spec := range PlanUpdateColumns {
			row[j] = planField(p, spec.DBColumn)
		}
		rows[i] = row
	}
	return Export{Name: "dados", Header: DataExportHeader(), Rows: rows}
}

// CoordinatorTemplate is the header-only file accepted by ImportCoordinators.
func CoordinatorTemplate() Export {
	return Export{Name: "coordenadores", Header: append([]string(nil), coordinatorHeader...)}
}

// ExportTemplate returns every plan in template layout.
func (s *Service) ExportTemplate(ctx context.Context) (Export, error) {
	plans, err := s.store.AllPlans(ctx, PlanFilter{})
	if err != nil {
		return Export{}, fmt.Errorf("load plans: %w", err)
	}
	return TemplateExport(plans), nil
}

// ExportData returns the plans matching f in data layout.
func (s *Service) ExportData(ctx context.Context, f PlanFilter) (Export, error) {
	plans, err := s.store.AllPlans(ctx, f)
	if err != nil {
		return Export{}, fmt.Errorf("load plans: %w", err)
	}
	return DataExport(plans), nil
}
