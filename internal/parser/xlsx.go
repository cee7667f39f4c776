package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/meucartao/importer/internal/statement"
)

// XLSXParser reads the spreadsheet flavor of the same export: the first
// sheet holds the CSV column layout, header row included. Short rows are
// skipped with the same resilience policy as the delimited parser.
type XLSXParser struct{}

func (p *XLSXParser) ID() string         { return "xlsx" }
func (p *XLSXParser) Name() string       { return "Credit card XLSX export" }
func (p *XLSXParser) FileType() FileType { return FileTypeBinary }

func (p *XLSXParser) Parse(ctx context.Context, req Request) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(req.Content))
	if err != nil {
		return nil, fmt.Errorf("xlsx parser: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("xlsx parser: workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx parser: read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("xlsx parser: sheet %q has no data rows", sheet)
	}

	var txs []statement.Transaction
	for _, row := range rows[1:] {
		tx, ok := rowFromColumns(row)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}

	return &Result{
		Transactions: txs,
		BillingMonth: billingMonthFromFilename(req.Filename),
	}, nil
}
