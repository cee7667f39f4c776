package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meucartao/importer/internal/logger"
	"github.com/meucartao/importer/internal/statement"
)

// ExpenseWriter persists classification outcomes. Both store backends
// implement it.
type ExpenseWriter interface {
	InsertExpenses(ctx context.Context, expenses []*statement.Expense) error

	// ResolveProjected replaces a projected placeholder with the confirmed
	// imported row: the source flips to the importing one and the confirmed
	// row's metadata overwrites the placeholder's.
	ResolveProjected(ctx context.Context, userID, expenseID, source string, confirmed statement.Transaction) error
}

// Commit persists a classification report for the given user: new rows are
// inserted as expenses, reconciled rows resolve their projected placeholder
// in place, duplicates are left alone.
func (s *Service) Commit(ctx context.Context, writer ExpenseWriter, report *statement.Report, userID, sourceID string) ([]*statement.Expense, error) {
	now := time.Now().UTC()

	var expenses []*statement.Expense
	resolved := 0
	for _, out := range report.Outcomes {
		if out.Reconciliation {
			if err := writer.ResolveProjected(ctx, userID, out.MatchedExpenseID, sourceID, out.Row); err != nil {
				return nil, fmt.Errorf("commit: resolving projected expense %s: %w", out.MatchedExpenseID, err)
			}
			resolved++
			continue
		}
		if out.Duplicate {
			continue
		}
		expenses = append(expenses, &statement.Expense{
			ID:                 uuid.NewString(),
			UserID:             userID,
			Source:             sourceID,
			InstallmentGroupID: out.InstallmentGroupID,
			CreatedAt:          now,
			Transaction:        out.Row,
		})
	}

	if err := writer.InsertExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("commit: inserting expenses: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("user_id", userID).
		Str("source", sourceID).
		Int("inserted", len(expenses)).
		Int("resolved", resolved).
		Msg("Import committed")

	return expenses, nil
}
