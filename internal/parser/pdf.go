package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meucartao/importer/internal/normalize"
	"github.com/meucartao/importer/internal/statement"
)

// DefaultExtractionTimeout bounds the external AI call. On timeout the whole
// parse fails; no partial row set is ever returned.
const DefaultExtractionTimeout = 2 * time.Minute

const extractionPrompt = "You are a credit card invoice parser for Brazilian PDF invoices.\n\n" +
	"Task:\n" +
	"- Parse ALL transactions in the attached invoice.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"transactions\": array of objects, one per transaction\n" +
	"- \"card_holder\": string or null (name printed on the card)\n" +
	"- \"card_last_four\": string or null (last four digits)\n" +
	"- \"billing_month\": string \"YYYY-MM\" or null (the invoice period)\n\n" +
	"Each transaction object must have:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string (merchant label as printed)\n" +
	"- \"category\": string or null (category printed by the bank, if any)\n" +
	"- \"installment\": string or null (installment marker like \"03/10\")\n" +
	"- \"amount\": number, the value in local currency (BRL)\n" +
	"- \"amount_foreign\": number or null (original foreign-currency value)\n" +
	"- \"exchange_rate\": number or null\n" +
	"- \"is_refund\": boolean, true for reversals/refunds (estornos)\n\n" +
	"Rules:\n" +
	"- Set \"is_refund\" explicitly; do not rely on the sign of \"amount\".\n" +
	"- If a field cannot be determined, set it to null.\n" +
	"- Return ONLY valid raw JSON.\n" +
	"- Do NOT wrap the response in code fences.\n" +
	"- Output must begin with \"{\" and end with \"}\".\n"

var billingMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// PDFParser delegates structural extraction of PDF invoices to an external
// AI call. Extraction failures, timeouts, and malformed payloads fail the
// whole parse. The parser itself holds no per-import state: the billing
// month travels in the Result.
type PDFParser struct {
	extractor Extractor
	timeout   time.Duration
}

// NewPDFParser creates a PDF invoice parser with the default extraction
// timeout.
func NewPDFParser(extractor Extractor) *PDFParser {
	return &PDFParser{extractor: extractor, timeout: DefaultExtractionTimeout}
}

// NewPDFParserWithTimeout creates a PDF invoice parser with a custom bound
// on the extraction call.
func NewPDFParserWithTimeout(extractor Extractor, timeout time.Duration) *PDFParser {
	return &PDFParser{extractor: extractor, timeout: timeout}
}

func (p *PDFParser) ID() string         { return "pdf" }
func (p *PDFParser) Name() string       { return "PDF invoice (AI extraction)" }
func (p *PDFParser) FileType() FileType { return FileTypeBinary }

func (p *PDFParser) Parse(ctx context.Context, req Request) (*Result, error) {
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("pdf parser: empty document")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	payload, err := p.extractor.Extract(ctx, req.Content, extractionPrompt)
	if err != nil {
		return nil, fmt.Errorf("pdf parser: extraction call: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("pdf parser: extraction returned no payload")
	}

	if err := validateExtractionPayload(payload); err != nil {
		return nil, fmt.Errorf("pdf parser: %w", err)
	}

	return transformExtractionPayload(payload)
}

// transformExtractionPayload converts the validated payload into normalized
// transactions. Holder and card metadata from the top level fill in rows
// that lack their own.
func transformExtractionPayload(payload map[string]interface{}) (*Result, error) {
	txAny, ok := payload["transactions"]
	if !ok {
		return nil, fmt.Errorf("transform: missing 'transactions' key in payload")
	}
	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("transform: 'transactions' is %T, want []interface{}", txAny)
	}

	holder, err := getOptionalStringField(payload, "card_holder")
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	lastFour, err := getOptionalStringField(payload, "card_last_four")
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	result := &Result{Transactions: make([]statement.Transaction, 0, len(txSlice))}

	month, err := getOptionalStringField(payload, "billing_month")
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	if month != nil && billingMonthPattern.MatchString(*month) {
		result.BillingMonth = *month
	}

	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transform: element %d is %T, want map[string]interface{}", i, item)
		}

		tx, err := transactionFromExtraction(obj)
		if err != nil {
			return nil, fmt.Errorf("transform: transaction %d: %w", i, err)
		}

		if tx.CardHolder == nil && holder != nil {
			tx.CardHolder = normalize.CleanOptional(*holder)
		}
		if tx.CardLastFour == nil && lastFour != nil {
			tx.CardLastFour = normalize.CleanOptional(*lastFour)
		}

		result.Transactions = append(result.Transactions, tx)
	}

	return result, nil
}

func transactionFromExtraction(obj map[string]interface{}) (statement.Transaction, error) {
	var tx statement.Transaction

	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return tx, err
	}
	date, ok := normalize.ParseISODate(dateStr)
	if !ok {
		return tx, fmt.Errorf("invalid date %q", dateStr)
	}
	tx.PurchaseDate = date

	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return tx, err
	}
	tx.Description = strings.TrimSpace(desc)

	category, err := getOptionalStringField(obj, "category")
	if err != nil {
		return tx, err
	}
	if category != nil {
		tx.BankCategory = normalize.CleanOptional(*category)
	}

	amount, err := getFloat64Field(obj, "amount", true)
	if err != nil {
		return tx, err
	}
	tx.ValueLocal = decimal.NewFromFloat(amount)

	foreign, err := getFloat64Field(obj, "amount_foreign", false)
	if err != nil {
		return tx, err
	}
	tx.ValueForeign = decimal.NewFromFloat(foreign)

	rate, err := getFloat64Field(obj, "exchange_rate", false)
	if err != nil {
		return tx, err
	}
	tx.ExchangeRate = decimal.NewFromFloat(rate)

	// Document extraction reports signed or unsigned amounts inconsistently,
	// so the refund flag comes from the payload, never from sign inspection.
	refund, err := getBoolField(obj, "is_refund")
	if err != nil {
		return tx, err
	}
	tx.IsRefund = refund

	marker, err := getOptionalStringField(obj, "installment")
	if err != nil {
		return tx, err
	}
	if marker != nil {
		if number, total, ok := normalize.ParseInstallment(*marker); ok {
			raw := strings.TrimSpace(*marker)
			tx.InstallmentRaw = &raw
			tx.Installment = &statement.Installment{Number: number, Total: total}
		}
	}

	return tx, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return s, nil
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return &s, nil
}

func getFloat64Field(m map[string]interface{}, key string, required bool) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return 0, fmt.Errorf("missing required field %q", key)
		}
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
	return f, nil
}

func getBoolField(m map[string]interface{}, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q has type %T, want bool", key, v)
	}
	return b, nil
}
