package statement

import "testing"

func TestHashContent(t *testing.T) {
	content := []byte("Data de Compra;Descricao\n15/01/2026;MERCADO")

	first := HashContent(content)
	second := HashContent(content)
	if first != second {
		t.Errorf("same content hashed to %s and %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(first))
	}

	other := HashContent([]byte("Data de Compra;Descricao\n15/01/2026;PADARIA"))
	if other == first {
		t.Error("different content produced identical digests")
	}

	if HashContent(nil) != HashContent([]byte{}) {
		t.Error("nil and empty payloads should hash identically")
	}
}
