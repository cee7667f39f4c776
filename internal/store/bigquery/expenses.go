// Package bigquery implements the expense store on BigQuery. It owns the
// row schema for the expenses table and answers the two reconciliation
// lookups the engine needs.
package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/meucartao/importer/internal/reconcile"
	"github.com/meucartao/importer/internal/statement"
)

const expensesTable = "expenses"

// moneyScale is the NUMERIC scale used when reading amounts back.
const moneyScale = 2

// ExpenseRow maps one stored expense onto the expenses table schema.
type ExpenseRow struct {
	ExpenseID string `bigquery:"expense_id"`
	UserID    string `bigquery:"user_id"`
	Source    string `bigquery:"source"`

	PurchaseDate civil.Date          `bigquery:"purchase_date"`
	CardHolder   bigquery.NullString `bigquery:"card_holder"`
	CardLastFour bigquery.NullString `bigquery:"card_last_four"`
	BankCategory bigquery.NullString `bigquery:"bank_category"`
	Description  string              `bigquery:"description"`

	InstallmentRaw     bigquery.NullString `bigquery:"installment_raw"`
	InstallmentNumber  bigquery.NullInt64  `bigquery:"installment_number"`
	InstallmentTotal   bigquery.NullInt64  `bigquery:"installment_total"`
	InstallmentGroupID bigquery.NullString `bigquery:"installment_group_id"`

	ValueForeign *big.Rat `bigquery:"value_foreign"`
	ExchangeRate *big.Rat `bigquery:"exchange_rate"`
	ValueLocal   *big.Rat `bigquery:"value_local"`
	IsRefund     bool     `bigquery:"is_refund"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	DeletedTS bigquery.NullTimestamp `bigquery:"deleted_ts"`
}

// Repository is the BigQuery-backed expense store. It holds a shared client
// to avoid creating a new connection for each operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a repository with a shared BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertExpenses inserts a batch of expenses into the expenses table.
func (r *Repository) InsertExpenses(ctx context.Context, expenses []*statement.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	rows := make([]*ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, FromExpense(e))
	}
	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(expensesTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertExpenses: inserting rows: %w", err)
	}
	return nil
}

// ResolveProjected flips a projected placeholder to the importing source
// and overwrites its metadata with the confirmed row's. The natural-key
// columns already match the confirmed row, so they are left untouched.
func (r *Repository) ResolveProjected(ctx context.Context, userID, expenseID, source string, confirmed statement.Transaction) error {
	sql := fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET source = @source,
		    card_holder = @card_holder,
		    bank_category = @bank_category,
		    installment_raw = @installment_raw,
		    value_foreign = @value_foreign,
		    exchange_rate = @exchange_rate,
		    is_refund = @is_refund
		WHERE expense_id = @expense_id
		  AND user_id = @user_id
		  AND deleted_ts IS NULL`,
		r.projectID, r.datasetID, expensesTable)

	q := r.client.Query(sql)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "source", Value: source},
		{Name: "card_holder", Value: nullString(confirmed.CardHolder)},
		{Name: "bank_category", Value: nullString(confirmed.BankCategory)},
		{Name: "installment_raw", Value: nullString(confirmed.InstallmentRaw)},
		{Name: "value_foreign", Value: confirmed.ValueForeign.Rat()},
		{Name: "exchange_rate", Value: confirmed.ExchangeRate.Rat()},
		{Name: "is_refund", Value: confirmed.IsRefund},
		{Name: "expense_id", Value: expenseID},
		{Name: "user_id", Value: userID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("ResolveProjected: run update: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("ResolveProjected: wait for update: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("ResolveProjected: update failed: %w", err)
	}
	return nil
}

// FindProjectedInstallment implements reconcile.Store. Ties are broken by
// taking the oldest row by created_ts.
func (r *Repository) FindProjectedInstallment(ctx context.Context, userID string, key reconcile.InstallmentKey) (*statement.Expense, error) {
	sql, params := r.matchQuery(userID, key.NaturalKey,
		"AND source = @source AND installment_number = @number AND installment_total = @total")
	params = append(params,
		bigquery.QueryParameter{Name: "source", Value: statement.SourceProjected},
		bigquery.QueryParameter{Name: "number", Value: int64(key.Number)},
		bigquery.QueryParameter{Name: "total", Value: int64(key.Total)},
	)
	return r.queryOne(ctx, sql, params)
}

// FindByNaturalKey implements reconcile.Store for the duplicate phase:
// non-projected sources only.
func (r *Repository) FindByNaturalKey(ctx context.Context, userID string, key reconcile.NaturalKey) (*statement.Expense, error) {
	sql, params := r.matchQuery(userID, key, "AND source != @source")
	params = append(params, bigquery.QueryParameter{Name: "source", Value: statement.SourceProjected})
	return r.queryOne(ctx, sql, params)
}

func (r *Repository) matchQuery(userID string, key reconcile.NaturalKey, extra string) (string, []bigquery.QueryParameter) {
	cardClause := "AND card_last_four IS NULL"
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "purchase_date", Value: key.PurchaseDate},
		{Name: "description", Value: key.Description},
		{Name: "value_local", Value: key.ValueLocal.Rat()},
	}
	if key.CardLastFour != nil {
		cardClause = "AND card_last_four = @card_last_four"
		params = append(params, bigquery.QueryParameter{Name: "card_last_four", Value: *key.CardLastFour})
	}

	sql := fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		  AND deleted_ts IS NULL
		  AND purchase_date = @purchase_date
		  AND description = @description
		  AND value_local = @value_local
		  %s
		  %s
		ORDER BY created_ts
		LIMIT 1`,
		r.projectID, r.datasetID, expensesTable, cardClause, extra)

	return sql, params
}

func (r *Repository) queryOne(ctx context.Context, sql string, params []bigquery.QueryParameter) (*statement.Expense, error) {
	q := r.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryOne: run query: %w", err)
	}

	var row ExpenseRow
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return nil, nil
		}
		return nil, fmt.Errorf("queryOne: read row: %w", err)
	}

	return row.toDomain(), nil
}

// FromExpense maps a domain expense onto the table schema.
func FromExpense(e *statement.Expense) *ExpenseRow {
	row := &ExpenseRow{
		ExpenseID:          e.ID,
		UserID:             e.UserID,
		Source:             e.Source,
		PurchaseDate:       e.PurchaseDate,
		Description:        e.Description,
		CardHolder:         nullString(e.CardHolder),
		CardLastFour:       nullString(e.CardLastFour),
		BankCategory:       nullString(e.BankCategory),
		InstallmentRaw:     nullString(e.InstallmentRaw),
		InstallmentGroupID: nullString(strOrNil(e.InstallmentGroupID)),
		ValueForeign:       e.ValueForeign.Rat(),
		ExchangeRate:       e.ExchangeRate.Rat(),
		ValueLocal:         e.ValueLocal.Rat(),
		IsRefund:           e.IsRefund,
		CreatedTS:          e.CreatedAt,
	}
	if e.Installment != nil {
		row.InstallmentNumber = bigquery.NullInt64{Int64: int64(e.Installment.Number), Valid: true}
		row.InstallmentTotal = bigquery.NullInt64{Int64: int64(e.Installment.Total), Valid: true}
	}
	if e.DeletedAt != nil {
		row.DeletedTS = bigquery.NullTimestamp{Timestamp: *e.DeletedAt, Valid: true}
	}
	return row
}

func (row *ExpenseRow) toDomain() *statement.Expense {
	e := &statement.Expense{
		ID:                 row.ExpenseID,
		UserID:             row.UserID,
		Source:             row.Source,
		InstallmentGroupID: row.InstallmentGroupID.StringVal,
		CreatedAt:          row.CreatedTS,
		Transaction: statement.Transaction{
			PurchaseDate: row.PurchaseDate,
			CardHolder:   stringPtr(row.CardHolder),
			CardLastFour: stringPtr(row.CardLastFour),
			BankCategory: stringPtr(row.BankCategory),
			Description:  row.Description,
			IsRefund:     row.IsRefund,
			ValueForeign: ratToDecimal(row.ValueForeign),
			ExchangeRate: ratToDecimal(row.ExchangeRate),
			ValueLocal:   ratToDecimal(row.ValueLocal),
		},
	}
	if row.InstallmentRaw.Valid {
		e.InstallmentRaw = &row.InstallmentRaw.StringVal
	}
	if row.InstallmentNumber.Valid && row.InstallmentTotal.Valid {
		e.Installment = &statement.Installment{
			Number: int(row.InstallmentNumber.Int64),
			Total:  int(row.InstallmentTotal.Int64),
		}
	}
	if row.DeletedTS.Valid {
		ts := row.DeletedTS.Timestamp
		e.DeletedAt = &ts
	}
	return e
}

func nullString(s *string) bigquery.NullString {
	if s == nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

func stringPtr(s bigquery.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.StringVal
	return &v
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, moneyScale)
}
