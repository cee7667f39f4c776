package gcs

import "testing"

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://statements/user-1/fatura-2026-01.pdf")
	if err != nil {
		t.Fatalf("ParseURI failed: %v", err)
	}
	if bucket != "statements" || object != "user-1/fatura-2026-01.pdf" {
		t.Errorf("ParseURI = (%q, %q)", bucket, object)
	}

	for _, bad := range []string{"http://x/y", "gs://", "gs://bucket", "gs://bucket/"} {
		if _, _, err := ParseURI(bad); err == nil {
			t.Errorf("ParseURI(%q) accepted malformed URI", bad)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("gs://statements/user-1/fatura-2026-01.csv"); got != "fatura-2026-01.csv" {
		t.Errorf("Filename = %q", got)
	}
}
