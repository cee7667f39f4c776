// Package statement defines the canonical transaction shape produced by the
// format parsers and the classification types returned by the reconciliation
// engine. Instances are transient: they live for one import operation and are
// never persisted directly.
package statement

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// SourceProjected tags stored expenses that were forward-scheduled by the
// user (a forecast installment) and not yet confirmed by a statement.
const SourceProjected = "projected"

// Installment is a parsed "N/M" installment marker.
// Invariant: 1 <= Number <= Total.
type Installment struct {
	Number int
	Total  int
}

// Transaction is the canonical unit every format parser produces.
type Transaction struct {
	// PurchaseDate is required; rows without a parseable date are dropped
	// by the parsers.
	PurchaseDate civil.Date

	CardHolder   *string
	CardLastFour *string

	// BankCategory is the source-provided label, nil when absent or a
	// placeholder.
	BankCategory *string

	// Description may be empty when the source omits it, but is always set.
	Description string

	// InstallmentRaw keeps the original marker ("03/10"); both installment
	// fields are nil for non-installment purchases.
	InstallmentRaw *string
	Installment    *Installment

	// ValueForeign and ExchangeRate are zero for purchases made in the
	// local currency.
	ValueForeign decimal.Decimal
	ExchangeRate decimal.Decimal

	// ValueLocal is the signed amount in local currency.
	ValueLocal decimal.Decimal

	IsRefund bool
}

// Expense is the persistent representation, owned by the store layer.
// The engine only reads it.
type Expense struct {
	ID                 string
	UserID             string
	Source             string
	InstallmentGroupID string
	DeletedAt          *time.Time
	CreatedAt          time.Time

	Transaction
}

// Outcome classifies one imported row. Duplicate and Reconciliation are
// mutually exclusive; both false means the row is new and should be inserted.
type Outcome struct {
	Row Transaction

	Duplicate      bool
	Reconciliation bool

	// MatchedExpenseID is set for duplicates and reconciliations.
	MatchedExpenseID string

	// InstallmentGroupID is carried over from the matched projected row on
	// reconciliation, or freshly generated for new installment purchases.
	InstallmentGroupID string
}

// Report is the result of one import operation.
type Report struct {
	Outcomes []Outcome

	// BillingMonth is "YYYY-MM", or empty when the source did not reveal it.
	BillingMonth string

	// ContentHash is the SHA-256 digest of the raw import payload.
	ContentHash string

	New        int
	Duplicates int
	Reconciled int
}
