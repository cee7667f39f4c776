// Package reconcile classifies normalized statement rows against the user's
// stored ledger: each row is either a reconciliation of a projected
// installment, a duplicate of an already imported expense, or genuinely new.
package reconcile

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meucartao/importer/internal/statement"
)

// NaturalKey is the tuple used to recognize the "same" transaction across
// sources.
type NaturalKey struct {
	PurchaseDate civil.Date
	Description  string
	ValueLocal   decimal.Decimal
	CardLastFour *string
}

// InstallmentKey extends the natural key with the installment pair for
// matching projected rows.
type InstallmentKey struct {
	NaturalKey
	Number int
	Total  int
}

// Store is the read side of the persistent expense store. Implementations
// must scope every lookup to the given user, skip soft-deleted rows, and —
// when several rows match — return the oldest one by creation time.
type Store interface {
	// FindProjectedInstallment returns a projected (forecast) expense
	// matching the installment key, or nil when none exists.
	FindProjectedInstallment(ctx context.Context, userID string, key InstallmentKey) (*statement.Expense, error)

	// FindByNaturalKey returns a non-projected expense matching the natural
	// key, or nil when none exists.
	FindByNaturalKey(ctx context.Context, userID string, key NaturalKey) (*statement.Expense, error)
}

// Engine runs the two-phase classification. It never writes to the store;
// insert and update decisions belong to the caller.
type Engine struct {
	store Store

	// newGroupID generates installment group ids for new multi-installment
	// purchases; replaceable in tests.
	newGroupID func() string
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, newGroupID: uuid.NewString}
}

// Classify decides how one row relates to the user's stored expenses.
//
// Phase 1 runs only for installment rows and looks for a projected
// placeholder with the same natural key and installment pair: a statement
// frequently confirms an installment the user scheduled ahead of time, and
// treating it as a plain insert would double-count the expense and orphan
// the placeholder. Phase 2 looks for an already imported expense with the
// same natural key. A phase 1 match short-circuits phase 2, so the two
// flags are mutually exclusive.
func (e *Engine) Classify(ctx context.Context, userID string, tx statement.Transaction) (statement.Outcome, error) {
	out := statement.Outcome{Row: tx}

	key := NaturalKey{
		PurchaseDate: tx.PurchaseDate,
		Description:  tx.Description,
		ValueLocal:   tx.ValueLocal,
		CardLastFour: tx.CardLastFour,
	}

	if tx.Installment != nil {
		projected, err := e.store.FindProjectedInstallment(ctx, userID, InstallmentKey{
			NaturalKey: key,
			Number:     tx.Installment.Number,
			Total:      tx.Installment.Total,
		})
		if err != nil {
			return out, fmt.Errorf("reconcile: find projected installment: %w", err)
		}
		if projected != nil {
			out.Reconciliation = true
			out.MatchedExpenseID = projected.ID
			out.InstallmentGroupID = projected.InstallmentGroupID
			return out, nil
		}
	}

	existing, err := e.store.FindByNaturalKey(ctx, userID, key)
	if err != nil {
		return out, fmt.Errorf("reconcile: find by natural key: %w", err)
	}
	if existing != nil {
		out.Duplicate = true
		out.MatchedExpenseID = existing.ID
		return out, nil
	}

	// New row. Multi-installment purchases get a group id here so the
	// caller's store can link the sibling rows it projects forward.
	if tx.Installment != nil {
		out.InstallmentGroupID = e.newGroupID()
	}
	return out, nil
}

// ClassifyAll classifies rows in source order.
func (e *Engine) ClassifyAll(ctx context.Context, userID string, txs []statement.Transaction) ([]statement.Outcome, error) {
	outcomes := make([]statement.Outcome, 0, len(txs))
	for i, tx := range txs {
		out, err := e.Classify(ctx, userID, tx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
