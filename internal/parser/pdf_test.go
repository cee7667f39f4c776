package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// mockExtractor is a mock implementation of Extractor for testing.
type mockExtractor struct {
	ExtractFunc func(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error)
}

func (m *mockExtractor) Extract(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, document, prompt)
	}
	return map[string]interface{}{"transactions": []interface{}{}}, nil
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"transactions": []interface{}{
			map[string]interface{}{
				"date":           "2026-01-15",
				"description":    "  MERCADO  ",
				"category":       "-",
				"installment":    "03/10",
				"amount":         150.0,
				"amount_foreign": nil,
				"exchange_rate":  nil,
				"is_refund":      false,
			},
			map[string]interface{}{
				"date":        "2026-01-20",
				"description": "ESTORNO UBER",
				"category":    nil,
				"installment": nil,
				"amount":      23.9,
				"is_refund":   true,
			},
		},
		"card_holder":    "JOAO",
		"card_last_four": "1234",
		"billing_month":  "2026-01",
	}
}

func TestPDFParser_Parse(t *testing.T) {
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
			return validPayload(), nil
		},
	}

	p := NewPDFParser(extractor)
	res, err := p.Parse(context.Background(), Request{Content: []byte("%PDF-1.4 mock")})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(res.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(res.Transactions))
	}
	if res.BillingMonth != "2026-01" {
		t.Errorf("BillingMonth = %q, want 2026-01", res.BillingMonth)
	}

	first := res.Transactions[0]
	if first.Description != "MERCADO" {
		t.Errorf("Description = %q, want trimmed MERCADO", first.Description)
	}
	if first.BankCategory != nil {
		t.Errorf("BankCategory = %v, want nil for placeholder", first.BankCategory)
	}
	if first.Installment == nil || first.Installment.Number != 3 || first.Installment.Total != 10 {
		t.Errorf("Installment = %+v, want 3/10", first.Installment)
	}
	if first.CardHolder == nil || *first.CardHolder != "JOAO" {
		t.Errorf("CardHolder = %v, want JOAO from payload metadata", first.CardHolder)
	}
	if first.CardLastFour == nil || *first.CardLastFour != "1234" {
		t.Errorf("CardLastFour = %v, want 1234 from payload metadata", first.CardLastFour)
	}
	if !first.ValueLocal.Equal(decimal.RequireFromString("150")) {
		t.Errorf("ValueLocal = %s, want 150", first.ValueLocal)
	}
	if first.IsRefund {
		t.Error("IsRefund = true, want false from explicit payload flag")
	}

	second := res.Transactions[1]
	if !second.IsRefund {
		t.Error("IsRefund = false, want true from explicit payload flag")
	}
	if second.Installment != nil {
		t.Errorf("Installment = %+v, want nil", second.Installment)
	}
}

func TestPDFParser_ExtractorFailure(t *testing.T) {
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
			return nil, errors.New("model unavailable")
		},
	}

	p := NewPDFParser(extractor)
	_, err := p.Parse(context.Background(), Request{Content: []byte("%PDF")})
	if err == nil {
		t.Fatal("expected error when the extraction call fails")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Errorf("error %q does not wrap the extractor failure", err)
	}
}

func TestPDFParser_ExtractionTimeout(t *testing.T) {
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("extraction context carries no deadline")
			}
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	p := NewPDFParserWithTimeout(extractor, 10*time.Millisecond)
	res, err := p.Parse(context.Background(), Request{Content: []byte("%PDF")})
	if err == nil {
		t.Fatal("expected error when the extraction call exceeds the timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error %q does not wrap context.DeadlineExceeded", err)
	}
	if res != nil {
		t.Errorf("got partial result %+v, want nil on timeout", res)
	}
}

func TestPDFParser_MissingTransactions(t *testing.T) {
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
			return map[string]interface{}{"card_holder": "JOAO"}, nil
		},
	}

	p := NewPDFParser(extractor)
	if _, err := p.Parse(context.Background(), Request{Content: []byte("%PDF")}); err == nil {
		t.Fatal("expected error for payload without transactions array")
	}
}

func TestPDFParser_MalformedTransaction(t *testing.T) {
	extractor := &mockExtractor{
		ExtractFunc: func(ctx context.Context, document []byte, prompt string) (map[string]interface{}, error) {
			return map[string]interface{}{
				"transactions": []interface{}{
					map[string]interface{}{"description": "NO DATE", "amount": 10.0},
				},
			}, nil
		},
	}

	p := NewPDFParser(extractor)
	if _, err := p.Parse(context.Background(), Request{Content: []byte("%PDF")}); err == nil {
		t.Fatal("expected error for transaction missing required date")
	}
}

func TestPDFParser_EmptyDocument(t *testing.T) {
	p := NewPDFParser(&mockExtractor{})
	if _, err := p.Parse(context.Background(), Request{Content: nil}); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"transactions": []}`, `{"transactions": []}`},
		{"json fence", "```json\n{\"transactions\": []}\n```", `{"transactions": []}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", "Here you go: {\"a\": 1} hope it helps", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
