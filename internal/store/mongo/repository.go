// Package mongo implements the expense store on MongoDB for self-hosted
// deployments. It mirrors the BigQuery store's matching contract: user
// scope, no soft-deleted rows, oldest match first.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meucartao/importer/internal/reconcile"
	"github.com/meucartao/importer/internal/statement"
)

const expensesCollection = "expenses"

// expenseDoc is the MongoDB document shape. Amounts are stored as decimal
// strings so matching is exact.
type expenseDoc struct {
	ExpenseID string `bson:"expenseId"`
	UserID    string `bson:"userId"`
	Source    string `bson:"source"`

	PurchaseDate string  `bson:"purchaseDate"`
	CardHolder   *string `bson:"cardHolder,omitempty"`
	CardLastFour *string `bson:"cardLastFour,omitempty"`
	BankCategory *string `bson:"bankCategory,omitempty"`
	Description  string  `bson:"description"`

	InstallmentRaw     *string `bson:"installmentRaw,omitempty"`
	InstallmentNumber  *int    `bson:"installmentNumber,omitempty"`
	InstallmentTotal   *int    `bson:"installmentTotal,omitempty"`
	InstallmentGroupID string  `bson:"installmentGroupId,omitempty"`

	ValueForeign string `bson:"valueForeign"`
	ExchangeRate string `bson:"exchangeRate"`
	ValueLocal   string `bson:"valueLocal"`
	IsRefund     bool   `bson:"isRefund"`

	CreatedAt time.Time  `bson:"createdAt"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty"`
}

// Repository is the Mongo-backed expense store.
type Repository struct {
	db *mongo.Database
}

// NewRepository creates a repository over the given database handle.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{db: db}
}

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

func (r *Repository) collection() *mongo.Collection {
	return r.db.Collection(expensesCollection)
}

// InsertExpenses inserts a batch of expenses.
func (r *Repository) InsertExpenses(ctx context.Context, expenses []*statement.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(expenses))
	for _, e := range expenses {
		docs = append(docs, fromExpense(e))
	}
	if _, err := r.collection().InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert expenses: %w", err)
	}
	return nil
}

// ResolveProjected flips a projected placeholder to the importing source
// and overwrites its metadata with the confirmed row's.
func (r *Repository) ResolveProjected(ctx context.Context, userID, expenseID, source string, confirmed statement.Transaction) error {
	filter := bson.M{"expenseId": expenseID, "userId": userID, "deletedAt": nil}

	res, err := r.collection().UpdateOne(ctx, filter, resolveUpdate(source, confirmed))
	if err != nil {
		return fmt.Errorf("resolve projected expense: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("resolve projected expense: no expense %s for user %s", expenseID, userID)
	}
	return nil
}

// resolveUpdate builds the $set document for a placeholder resolution. The
// natural-key fields already match the confirmed row and stay untouched.
func resolveUpdate(source string, confirmed statement.Transaction) bson.M {
	return bson.M{"$set": bson.M{
		"source":         source,
		"cardHolder":     confirmed.CardHolder,
		"bankCategory":   confirmed.BankCategory,
		"installmentRaw": confirmed.InstallmentRaw,
		"valueForeign":   confirmed.ValueForeign.String(),
		"exchangeRate":   confirmed.ExchangeRate.String(),
		"isRefund":       confirmed.IsRefund,
	}}
}

// FindProjectedInstallment implements reconcile.Store.
func (r *Repository) FindProjectedInstallment(ctx context.Context, userID string, key reconcile.InstallmentKey) (*statement.Expense, error) {
	return r.findOne(ctx, projectedInstallmentFilter(userID, key))
}

// FindByNaturalKey implements reconcile.Store.
func (r *Repository) FindByNaturalKey(ctx context.Context, userID string, key reconcile.NaturalKey) (*statement.Expense, error) {
	return r.findOne(ctx, naturalKeyFilter(userID, key))
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*statement.Expense, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var doc expenseDoc
	err := r.collection().FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return doc.toDomain()
}

// naturalKeyFilter matches non-projected, non-deleted rows on the natural
// key tuple.
func naturalKeyFilter(userID string, key reconcile.NaturalKey) bson.M {
	filter := bson.M{
		"userId":       userID,
		"deletedAt":    nil,
		"source":       bson.M{"$ne": statement.SourceProjected},
		"purchaseDate": key.PurchaseDate.String(),
		"description":  key.Description,
		"valueLocal":   key.ValueLocal.String(),
	}
	if key.CardLastFour != nil {
		filter["cardLastFour"] = *key.CardLastFour
	} else {
		filter["cardLastFour"] = nil
	}
	return filter
}

// projectedInstallmentFilter matches projected rows carrying the same
// installment pair.
func projectedInstallmentFilter(userID string, key reconcile.InstallmentKey) bson.M {
	filter := naturalKeyFilter(userID, key.NaturalKey)
	filter["source"] = statement.SourceProjected
	filter["installmentNumber"] = key.Number
	filter["installmentTotal"] = key.Total
	return filter
}

func fromExpense(e *statement.Expense) *expenseDoc {
	doc := &expenseDoc{
		ExpenseID:          e.ID,
		UserID:             e.UserID,
		Source:             e.Source,
		PurchaseDate:       e.PurchaseDate.String(),
		CardHolder:         e.CardHolder,
		CardLastFour:       e.CardLastFour,
		BankCategory:       e.BankCategory,
		Description:        e.Description,
		InstallmentRaw:     e.InstallmentRaw,
		InstallmentGroupID: e.InstallmentGroupID,
		ValueForeign:       e.ValueForeign.String(),
		ExchangeRate:       e.ExchangeRate.String(),
		ValueLocal:         e.ValueLocal.String(),
		IsRefund:           e.IsRefund,
		CreatedAt:          e.CreatedAt,
		DeletedAt:          e.DeletedAt,
	}
	if e.Installment != nil {
		doc.InstallmentNumber = &e.Installment.Number
		doc.InstallmentTotal = &e.Installment.Total
	}
	return doc
}

func (doc *expenseDoc) toDomain() (*statement.Expense, error) {
	purchaseDate, ok := parseStoredDate(doc.PurchaseDate)
	if !ok {
		return nil, fmt.Errorf("stored expense %s has invalid purchase date %q", doc.ExpenseID, doc.PurchaseDate)
	}

	valueForeign, err := parseStoredDecimal(doc.ValueForeign)
	if err != nil {
		return nil, fmt.Errorf("stored expense %s: %w", doc.ExpenseID, err)
	}
	exchangeRate, err := parseStoredDecimal(doc.ExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("stored expense %s: %w", doc.ExpenseID, err)
	}
	valueLocal, err := parseStoredDecimal(doc.ValueLocal)
	if err != nil {
		return nil, fmt.Errorf("stored expense %s: %w", doc.ExpenseID, err)
	}

	e := &statement.Expense{
		ID:                 doc.ExpenseID,
		UserID:             doc.UserID,
		Source:             doc.Source,
		InstallmentGroupID: doc.InstallmentGroupID,
		CreatedAt:          doc.CreatedAt,
		DeletedAt:          doc.DeletedAt,
		Transaction: statement.Transaction{
			PurchaseDate:   purchaseDate,
			CardHolder:     doc.CardHolder,
			CardLastFour:   doc.CardLastFour,
			BankCategory:   doc.BankCategory,
			Description:    doc.Description,
			InstallmentRaw: doc.InstallmentRaw,
			ValueForeign:   valueForeign,
			ExchangeRate:   exchangeRate,
			ValueLocal:     valueLocal,
			IsRefund:       doc.IsRefund,
		},
	}
	if doc.InstallmentNumber != nil && doc.InstallmentTotal != nil {
		e.Installment = &statement.Installment{
			Number: *doc.InstallmentNumber,
			Total:  *doc.InstallmentTotal,
		}
	}
	return e, nil
}
