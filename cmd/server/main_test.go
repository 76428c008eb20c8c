package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"stamind.app/journal-service/internal/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		tokenUser = ""
		analyzeSchema = false
		analyzeFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "--user", "alice")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	sub, err := auth.ValidateJWT("cli-secret", strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("sub = %q", sub)
	}
}

func TestTokenCommandRandomUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := execute(t, "token")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	sub, err := auth.ValidateJWT("cli-secret", strings.TrimSpace(out))
	if err != nil || len(sub) != 36 {
		t.Fatalf("sub = %q, %v", sub, err)
	}
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := execute(t, "token", "--user", "alice"); err == nil {
		t.Fatalf("expected an error without JWT_SECRET")
	}
}

func TestAnalyzeSchema(t *testing.T) {
	out, err := execute(t, "analyze", "--schema")
	if err != nil {
		t.Fatalf("analyze --schema: %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(out), &schema); err != nil {
		t.Fatalf("schema output %q: %v", out, err)
	}
	props, _ := schema["properties"].(map[string]any)
	for _, field := range []string{"emotionalState", "summary", "rawScore", "supportMessage"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing %q", field)
		}
	}
}

func TestReadEntry(t *testing.T) {
	got, err := readEntry(strings.NewReader("from stdin"), "")
	if err != nil || got != "from stdin" {
		t.Fatalf("readEntry = %q, %v", got, err)
	}
	if _, err := readEntry(nil, "/does/not/exist"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
