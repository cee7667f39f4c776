// Package importer sequences one statement import: parser resolution,
// content hashing, parsing, and per-row classification. It is read-only with
// respect to the store; committing the classified rows belongs to the
// caller, which lets callers preview an import before inserting anything.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/meucartao/importer/internal/logger"
	"github.com/meucartao/importer/internal/parser"
	"github.com/meucartao/importer/internal/reconcile"
	"github.com/meucartao/importer/internal/statement"
)

// ErrEmptyContent is returned when the import payload has no bytes.
var ErrEmptyContent = errors.New("import content is empty")

// ErrMissingUser is returned when no user identity accompanies the import.
var ErrMissingUser = errors.New("import user is required")

// Request describes one import operation.
type Request struct {
	// SourceID selects the format parser.
	SourceID string

	// Content is the raw payload, bytes or text depending on the source's
	// file type.
	Content []byte

	// UserID scopes every reconciliation query.
	UserID string

	// Filename is optional; some sources derive the billing month from it.
	Filename string
}

// Service is the import orchestrator.
type Service struct {
	registry *parser.Registry
	engine   *reconcile.Engine
}

// NewService creates an orchestrator over the given registry and engine.
func NewService(registry *parser.Registry, engine *reconcile.Engine) *Service {
	return &Service{registry: registry, engine: engine}
}

// Sources lists the import sources available to callers.
func (s *Service) Sources() []parser.Source {
	return s.registry.Sources()
}

// Import runs one import end to end and returns the full classification
// report. Structural failures (unknown source, empty content) and parser
// failures surface as a single error with no partial output.
func (s *Service) Import(ctx context.Context, req Request) (*statement.Report, error) {
	if len(req.Content) == 0 {
		return nil, ErrEmptyContent
	}
	if req.UserID == "" {
		return nil, ErrMissingUser
	}

	p, err := s.registry.Get(req.SourceID)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)

	// The hash is a pure function of the raw bytes, independent of how
	// parsing goes; callers use it for file-level idempotency.
	contentHash := statement.HashContent(req.Content)

	res, err := p.Parse(ctx, parser.Request{Content: req.Content, Filename: req.Filename})
	if err != nil {
		return nil, fmt.Errorf("import: parse %s source: %w", p.ID(), err)
	}

	outcomes, err := s.engine.ClassifyAll(ctx, req.UserID, res.Transactions)
	if err != nil {
		return nil, fmt.Errorf("import: classify rows: %w", err)
	}

	report := &statement.Report{
		Outcomes:     outcomes,
		BillingMonth: res.BillingMonth,
		ContentHash:  contentHash,
	}
	for _, out := range outcomes {
		switch {
		case out.Reconciliation:
			report.Reconciled++
		case out.Duplicate:
			report.Duplicates++
		default:
			report.New++
		}
	}

	log.Info().
		Str("source", p.ID()).
		Str("user_id", req.UserID).
		Str("billing_month", report.BillingMonth).
		Str("content_hash", contentHash).
		Int("rows", len(outcomes)).
		Int("new", report.New).
		Int("duplicates", report.Duplicates).
		Int("reconciled", report.Reconciled).
		Msg("Import classified")

	return report, nil
}
