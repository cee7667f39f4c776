package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const csvHeader = "Data de Compra;Nome no Cartao;Final do Cartao;Categoria;Descricao;Parcela;Valor (em US$);Cotacao (em R$);Valor (em R$)"

func TestCSVParser_Parse(t *testing.T) {
	content := strings.Join([]string{
		csvHeader,
		"15/01/2026;JOAO;1234;-;MERCADO;03/10;0;0;150,00",
	}, "\n")

	p := &CSVParser{}
	res, err := p.Parse(context.Background(), Request{
		Content:  []byte(content),
		Filename: "fatura-2026-01.csv",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(res.Transactions))
	}

	tx := res.Transactions[0]
	if tx.PurchaseDate.String() != "2026-01-15" {
		t.Errorf("PurchaseDate = %s, want 2026-01-15", tx.PurchaseDate)
	}
	if tx.CardHolder == nil || *tx.CardHolder != "JOAO" {
		t.Errorf("CardHolder = %v, want JOAO", tx.CardHolder)
	}
	if tx.CardLastFour == nil || *tx.CardLastFour != "1234" {
		t.Errorf("CardLastFour = %v, want 1234", tx.CardLastFour)
	}
	if tx.BankCategory != nil {
		t.Errorf("BankCategory = %q, want nil for placeholder", *tx.BankCategory)
	}
	if tx.Description != "MERCADO" {
		t.Errorf("Description = %q, want MERCADO", tx.Description)
	}
	if tx.Installment == nil || tx.Installment.Number != 3 || tx.Installment.Total != 10 {
		t.Errorf("Installment = %+v, want 3/10", tx.Installment)
	}
	if tx.InstallmentRaw == nil || *tx.InstallmentRaw != "03/10" {
		t.Errorf("InstallmentRaw = %v, want 03/10", tx.InstallmentRaw)
	}
	if !tx.ValueLocal.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("ValueLocal = %s, want 150.00", tx.ValueLocal)
	}
	if tx.IsRefund {
		t.Error("IsRefund = true for a positive amount")
	}
	if res.BillingMonth != "2026-01" {
		t.Errorf("BillingMonth = %q, want 2026-01", res.BillingMonth)
	}
}

func TestCSVParser_SkipsMalformedRows(t *testing.T) {
	content := strings.Join([]string{
		csvHeader,
		"15/01/2026;JOAO;1234;-;MERCADO;Única;0;0;150,00",
		"too;few;columns",
		"16/01/2026;JOAO;1234;transporte;UBER;-;0;0;23,90",
		"not-a-date;JOAO;1234;-;PADARIA;-;0;0;12,00",
		"",
	}, "\n")

	p := &CSVParser{}
	res, err := p.Parse(context.Background(), Request{Content: []byte(content)})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2 (malformed rows skipped)", len(res.Transactions))
	}
	if res.Transactions[0].Installment != nil {
		t.Error("single-installment marker produced an installment pair")
	}
	if res.Transactions[1].BankCategory == nil || *res.Transactions[1].BankCategory != "transporte" {
		t.Errorf("BankCategory = %v, want transporte", res.Transactions[1].BankCategory)
	}
	if res.BillingMonth != "" {
		t.Errorf("BillingMonth = %q, want empty without filename", res.BillingMonth)
	}
}

func TestCSVParser_RefundFromNegativeAmount(t *testing.T) {
	content := csvHeader + "\n20/01/2026;JOAO;1234;-;ESTORNO MERCADO;-;0;0;-150,00"

	p := &CSVParser{}
	res, err := p.Parse(context.Background(), Request{Content: []byte(content)})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tx := res.Transactions[0]
	if !tx.IsRefund {
		t.Error("IsRefund = false for a negative amount")
	}
	if !tx.ValueLocal.Equal(decimal.RequireFromString("-150")) {
		t.Errorf("ValueLocal = %s, want -150", tx.ValueLocal)
	}
}

func TestCSVParser_EmptyContent(t *testing.T) {
	p := &CSVParser{}
	if _, err := p.Parse(context.Background(), Request{Content: []byte("")}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestBillingMonthFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"fatura-2026-01.csv", "2026-01"},
		{"export_2025-12_final.csv", "2025-12"},
		{"fatura.csv", ""},
		{"fatura-2026-13.csv", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := billingMonthFromFilename(tt.filename); got != tt.want {
			t.Errorf("billingMonthFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
