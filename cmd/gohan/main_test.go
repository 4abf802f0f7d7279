package main

import (
	"bytes"
	"strings"
	"testing"

	pkgauth "github.com/bonyuta0204/gohan-bot/pkg/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command error: %v", err)
	}
	if !strings.Contains(out, "gohan-bot version") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("GOHAN_DB_PATH", ":memory:")

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate command error: %v", err)
	}
	if !strings.Contains(out, "migration version") {
		t.Errorf("unexpected migrate output: %q", out)
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")

	out, err := execute(t, "token", "--subject", "kitchen")
	if err != nil {
		t.Fatalf("token command error: %v", err)
	}

	token := strings.TrimSpace(out)
	claims, err := pkgauth.ParseToken("cli-test-secret", token)
	if err != nil {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if claims.Subject != "kitchen" {
		t.Errorf("subject = %q; want kitchen", claims.Subject)
	}
}

func TestTokenCommand_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := execute(t, "token"); err == nil {
		t.Fatalf("expected error without a configured secret")
	}
}
