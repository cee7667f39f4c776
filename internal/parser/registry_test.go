package parser

import (
	"errors"
	"testing"
)

func TestRegistry_Get(t *testing.T) {
	r := DefaultRegistry(&mockExtractor{})

	p, err := r.Get("csv")
	if err != nil {
		t.Fatalf("Get(csv) failed: %v", err)
	}
	if p.ID() != "csv" {
		t.Errorf("Get(csv).ID() = %q", p.ID())
	}

	// Lookup is case-insensitive.
	if _, err := r.Get("PDF"); err != nil {
		t.Errorf("Get(PDF) failed: %v", err)
	}

	_, err = r.Get("ofx")
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error %v is not ErrUnknownSource", err)
	}
}

func TestRegistry_SourcesOrder(t *testing.T) {
	r := DefaultRegistry(&mockExtractor{})

	sources := r.Sources()
	wantIDs := []string{"csv", "xlsx", "pdf"}
	if len(sources) != len(wantIDs) {
		t.Fatalf("got %d sources, want %d", len(sources), len(wantIDs))
	}
	for i, want := range wantIDs {
		if sources[i].ID != want {
			t.Errorf("sources[%d].ID = %q, want %q", i, sources[i].ID, want)
		}
		if sources[i].Name == "" {
			t.Errorf("sources[%d].Name is empty", i)
		}
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r := NewRegistry()
	r.Register(&CSVParser{})
	r.Register(&CSVParser{})
}
