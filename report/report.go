// Package report renders a rewards.Result as an XLSX workbook.
//
// The workbook has one sheet per rollup:
//
//	Per Customer Per Month   Customer | Month | Points
//	Per Month                Month | Points
//	Totals                   Customer | Name | Points
//
// Customers are listed by id and months in calendar order.
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/customer-rewards/rewards"
)

const (
	SheetPerCustomerPerMonth = "Per Customer Per Month"
	SheetPerMonth            = "Per Month"
	SheetTotals              = "Totals"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Build returns a workbook for res. names maps customer ids to display
// names and may be nil. The caller closes the file.
func Build(res *rewards.Result, names map[rewards.CustomerID]string) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPerCustomerPerMonth); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}
	for _, name := range []string{SheetPerMonth, SheetTotals} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("report: add sheet %q: %w", name, err)
		}
	}

	customers := res.CustomerIDs()

	rows := [][]any{{"Customer", "Month", "Points"}}
	for _, c := range customers {
		for _, month := range rewards.SortedMonths(res.PerCustomerPerMonth[c]) {
			rows = append(rows, []any{int64(c), month, points(res.PerCustomerPerMonth[c][month])})
		}
	}
	if err := writeRows(f, SheetPerCustomerPerMonth, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{{"Month", "Points"}}
	for _, month := range rewards.SortedMonths(res.PerMonth) {
		rows = append(rows, []any{month, points(res.PerMonth[month])})
	}
	if err := writeRows(f, SheetPerMonth, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{{"Customer", "Name", "Points"}}
	for _, c := range customers {
		rows = append(rows, []any{int64(c), names[c], points(res.TotalPerCustomer[c])})
	}
	if err := writeRows(f, SheetTotals, rows); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook for res and writes it to w.
func Write(w io.Writer, res *rewards.Result, names map[rewards.CustomerID]string) error {
	f, err := Build(res, names)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

// CustomerNames indexes customers by id for the Totals sheet.
func CustomerNames(customers []rewards.Customer) map[rewards.CustomerID]string {
	names := make(map[rewards.CustomerID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names
}

// WriteFile builds the workbook for res and saves it at path.
func WriteFile(path string, res *rewards.Result, names map[rewards.CustomerID]string) error {
	f, err := Build(res, names)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("report: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// points converts to float64 for the cell value. Spreadsheet numbers are
// doubles anyway.
func points(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
