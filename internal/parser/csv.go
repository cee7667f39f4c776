package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/meucartao/importer/internal/normalize"
	"github.com/meucartao/importer/internal/statement"
)

// CSVParser reads the semicolon-delimited credit card export:
//
//	Data de Compra;Nome no Cartao;Final do Cartao;Categoria;Descricao;
//	Parcela;Valor (em US$);Cotacao (em R$);Valor (em R$)
//
// The first line is a header and is skipped. Rows with fewer columns than
// the layout requires are silently dropped: a single mangled line must not
// fail the whole import.
type CSVParser struct{}

const (
	csvDelimiter = ";"
	csvMinFields = 9

	colPurchaseDate = 0
	colCardHolder   = 1
	colCardLastFour = 2
	colBankCategory = 3
	colDescription  = 4
	colInstallment  = 5
	colValueForeign = 6
	colExchangeRate = 7
	colValueLocal   = 8
)

func (p *CSVParser) ID() string         { return "csv" }
func (p *CSVParser) Name() string       { return "Credit card CSV export" }
func (p *CSVParser) FileType() FileType { return FileTypeText }

// Parse splits the payload into lines, skips the header, and normalizes
// every remaining row. The billing month comes from the filename, not the
// content; CSV exports carry no period marker inside.
func (p *CSVParser) Parse(ctx context.Context, req Request) (*Result, error) {
	text := strings.ReplaceAll(string(req.Content), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("csv parser: content has no data rows")
	}

	var txs []statement.Transaction
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, csvDelimiter)
		tx, ok := rowFromColumns(fields)
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

// rowFromColumns normalizes one delimited row. It reports ok=false for rows
// that are structurally short or whose purchase date does not parse; every
// other field degrades to nil/zero instead of failing the row.
func rowFromColumns(fields []string) (statement.Transaction, bool) {
	if len(fields) < csvMinFields {
		return statement.Transaction{}, false
	}

	date, ok := normalize.ParseDate(fields[colPurchaseDate])
	if !ok {
		return statement.Transaction{}, false
	}

	tx := statement.Transaction{
		PurchaseDate: date,
		CardHolder:   normalize.CleanOptional(fields[colCardHolder]),
		CardLastFour: normalize.CleanOptional(fields[colCardLastFour]),
		BankCategory: normalize.CleanOptional(fields[colBankCategory]),
		Description:  strings.TrimSpace(fields[colDescription]),
		ValueForeign: normalize.ParseNumber(fields[colValueForeign]),
		ExchangeRate: normalize.ParseNumber(fields[colExchangeRate]),
		ValueLocal:   normalize.ParseNumber(fields[colValueLocal]),
	}
	tx.IsRefund = tx.ValueLocal.IsNegative()

	if number, total, ok := normalize.ParseInstallment(fields[colInstallment]); ok {
		raw := strings.TrimSpace(fields[colInstallment])
		tx.InstallmentRaw = &raw
		tx.Installment = &statement.Installment{Number: number, Total: total}
	}

	return tx, true
}
