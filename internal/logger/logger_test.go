package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("import classified")

	if !strings.Contains(buf.String(), "import classified") {
		t.Errorf("expected message in output, got: %s", buf.String())
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	ctx := WithContext(context.Background(), log)

	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("via context")

	if buf.Len() == 0 {
		t.Error("expected output from logger retrieved via context")
	}
}

func TestFromContext_Default(t *testing.T) {
	// A bare context still yields a usable logger.
	log := FromContext(context.Background())
	log.Debug().Msg("no-op")
}
