package mongo

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/meucartao/importer/internal/importer"
	"github.com/meucartao/importer/internal/reconcile"
	"github.com/meucartao/importer/internal/statement"
)

var _ reconcile.Store = (*Repository)(nil)
var _ importer.ExpenseWriter = (*Repository)(nil)

func testKey(lastFour *string) reconcile.NaturalKey {
	return reconcile.NaturalKey{
		PurchaseDate: civil.Date{Year: 2026, Month: time.January, Day: 15},
		Description:  "MERCADO",
		ValueLocal:   decimal.RequireFromString("150.00"),
		CardLastFour: lastFour,
	}
}

func TestNaturalKeyFilter(t *testing.T) {
	lastFour := "1234"
	filter := naturalKeyFilter("user-1", testKey(&lastFour))

	if filter["userId"] != "user-1" {
		t.Errorf("userId = %v", filter["userId"])
	}
	if filter["deletedAt"] != nil {
		t.Errorf("deletedAt = %v, want nil (soft-deleted rows invisible)", filter["deletedAt"])
	}
	if filter["purchaseDate"] != "2026-01-15" {
		t.Errorf("purchaseDate = %v", filter["purchaseDate"])
	}
	if filter["valueLocal"] != "150" {
		t.Errorf("valueLocal = %v", filter["valueLocal"])
	}
	if filter["cardLastFour"] != "1234" {
		t.Errorf("cardLastFour = %v", filter["cardLastFour"])
	}

	ne, ok := filter["source"].(bson.M)
	if !ok || ne["$ne"] != statement.SourceProjected {
		t.Errorf("source filter = %v, want $ne projected", filter["source"])
	}
}

func TestNaturalKeyFilter_NilCard(t *testing.T) {
	filter := naturalKeyFilter("user-1", testKey(nil))
	if filter["cardLastFour"] != nil {
		t.Errorf("cardLastFour = %v, want nil match", filter["cardLastFour"])
	}
}

func TestProjectedInstallmentFilter(t *testing.T) {
	lastFour := "1234"
	filter := projectedInstallmentFilter("user-1", reconcile.InstallmentKey{
		NaturalKey: testKey(&lastFour),
		Number:     3,
		Total:      10,
	})

	if filter["source"] != statement.SourceProjected {
		t.Errorf("source = %v, want projected", filter["source"])
	}
	if filter["installmentNumber"] != 3 || filter["installmentTotal"] != 10 {
		t.Errorf("installment filter = %v/%v", filter["installmentNumber"], filter["installmentTotal"])
	}
}

func TestResolveUpdate(t *testing.T) {
	raw := "03/10"
	category := "Supermercado"
	confirmed := statement.Transaction{
		PurchaseDate:   civil.Date{Year: 2026, Month: time.January, Day: 15},
		Description:    "MERCADO",
		BankCategory:   &category,
		InstallmentRaw: &raw,
		ValueLocal:     decimal.RequireFromString("150.00"),
		ValueForeign:   decimal.Zero,
		ExchangeRate:   decimal.Zero,
	}

	update := resolveUpdate("csv", confirmed)
	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("update = %v, want $set document", update)
	}

	if set["source"] != "csv" {
		t.Errorf("source = %v, want csv (placeholder no longer projected)", set["source"])
	}
	if got := set["installmentRaw"].(*string); got == nil || *got != "03/10" {
		t.Errorf("installmentRaw = %v", set["installmentRaw"])
	}
	if got := set["bankCategory"].(*string); got == nil || *got != "Supermercado" {
		t.Errorf("bankCategory = %v", set["bankCategory"])
	}
	if set["isRefund"] != false {
		t.Errorf("isRefund = %v", set["isRefund"])
	}

	// The natural-key fields already match; resolution must not touch them.
	for _, key := range []string{"purchaseDate", "description", "valueLocal", "cardLastFour", "installmentGroupId"} {
		if _, present := set[key]; present {
			t.Errorf("resolution update touches %q", key)
		}
	}
}

func TestExpenseDocRoundTrip(t *testing.T) {
	raw := "03/10"
	lastFour := "1234"
	in := &statement.Expense{
		ID:                 "exp-1",
		UserID:             "user-1",
		Source:             statement.SourceProjected,
		InstallmentGroupID: "group-7",
		CreatedAt:          time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Transaction: statement.Transaction{
			PurchaseDate:   civil.Date{Year: 2026, Month: time.January, Day: 15},
			CardLastFour:   &lastFour,
			Description:    "MERCADO",
			InstallmentRaw: &raw,
			Installment:    &statement.Installment{Number: 3, Total: 10},
			ValueLocal:     decimal.RequireFromString("150.00"),
			ValueForeign:   decimal.Zero,
			ExchangeRate:   decimal.Zero,
		},
	}

	out, err := fromExpense(in).toDomain()
	if err != nil {
		t.Fatalf("toDomain failed: %v", err)
	}
	if out.ID != in.ID || out.Source != in.Source || out.InstallmentGroupID != in.InstallmentGroupID {
		t.Errorf("identity fields lost: %+v", out)
	}
	if out.PurchaseDate != in.PurchaseDate {
		t.Errorf("PurchaseDate = %v", out.PurchaseDate)
	}
	if out.Installment == nil || out.Installment.Number != 3 {
		t.Errorf("Installment = %+v", out.Installment)
	}
	if !out.ValueLocal.Equal(in.ValueLocal) {
		t.Errorf("ValueLocal = %s", out.ValueLocal)
	}
}
