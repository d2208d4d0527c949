package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("FIT_SIGNALS_TEST_PRIMARY", "")
	t.Setenv("FIT_SIGNALS_TEST_SECONDARY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{Value: "inline", File: keyFile}, want: "from-file"},
		{name: "inline value", src: Source{Value: " inline ", Env: []string{"FIT_SIGNALS_TEST_SECONDARY"}}, want: "inline"},
		{name: "first non-empty env", src: Source{Env: []string{"FIT_SIGNALS_TEST_PRIMARY", "FIT_SIGNALS_TEST_SECONDARY"}}, want: "from-env"},
		{name: "missing file", src: Source{Name: "api key", File: filepath.Join(dir, "nope")}, wantErr: "reading api key from file"},
		{name: "empty file", src: Source{Name: "api key", File: emptyFile}, wantErr: "is empty"},
		{name: "nothing configured", src: Source{}, wantErr: "secret is not configured"},
		{name: "env checked", src: Source{Name: "LLM key", Env: []string{"FIT_SIGNALS_TEST_PRIMARY"}}, wantErr: "checked FIT_SIGNALS_TEST_PRIMARY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
