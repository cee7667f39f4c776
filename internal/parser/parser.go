// Package parser turns raw statement exports into normalized transactions.
// Each supported source format has its own Parser implementation; the
// Registry maps source identifiers to parser instances.
package parser

import (
	"context"
	"regexp"

	"github.com/meucartao/importer/internal/statement"
)

// FileType tells callers how to read the source before handing it over.
type FileType string

const (
	// FileTypeText is a plain-text export (CSV and friends).
	FileTypeText FileType = "text"
	// FileTypeBinary is an opaque document (PDF, XLSX).
	FileTypeBinary FileType = "binary"
)

// Request is the input for one parse call.
type Request struct {
	// Content is the exact raw payload of the import.
	Content []byte

	// Filename is optional; sources that encode the billing month in the
	// filename read it from here.
	Filename string
}

// Result is the output of one parse call. The billing month lives here, not
// on the parser instance, so shared parser singletons stay safe under
// concurrent imports.
type Result struct {
	Transactions []statement.Transaction

	// BillingMonth is "YYYY-MM", or empty when the source does not reveal it.
	BillingMonth string
}

// Parser is the capability set every source format implements.
type Parser interface {
	// ID is the stable source identifier used by the registry.
	ID() string

	// Name is the human-readable source name shown to callers.
	Name() string

	// FileType tells callers how the raw content should be read.
	FileType() FileType

	// Parse produces the normalized transactions in source order.
	Parse(ctx context.Context, req Request) (*Result, error)
}

var billingMonthFilenamePattern = regexp.MustCompile(`(20\d{2})-(0[1-9]|1[0-2])`)

// billingMonthFromFilename pulls a "YYYY-MM" marker out of an export
// filename, e.g. "fatura-2026-01.csv" -> "2026-01".
func billingMonthFromFilename(filename string) string {
	m := billingMonthFilenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	return m[1] + "-" + m[2]
}
