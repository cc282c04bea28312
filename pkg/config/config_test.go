package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNPassthrough(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://user:pw@localhost:5432/ledger"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DSN != "postgres://user:pw@localhost:5432/ledger" {
		t.Fatalf("DSN should be untouched, got %s", cfg.DSN)
	}
}

func TestEnsureDSNFromLegacyParts(t *testing.T) {
	cfg := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5433,
		LegacyUser:     "verdecoop",
		LegacyPassword: "s3cret",
		LegacyName:     "ledger",
		LegacySSLMode:  "require",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, fragment := range []string{"postgres://", "verdecoop:s3cret@", "db.internal:5433", "/ledger", "sslmode=require"} {
		if !strings.Contains(cfg.DSN, fragment) {
			t.Fatalf("DSN %q missing %q", cfg.DSN, fragment)
		}
	}
}

func TestEnsureDSNMissingParts(t *testing.T) {
	cfg := DBConfig{LegacyHost: "db.internal"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatal("expected error when legacy parts are incomplete")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Fatalf("error should list the missing vars, got %v", err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	if !(AppConfig{Env: "DEV"}).IsDev() {
		t.Fatal("IsDev should be case-insensitive")
	}
	if (AppConfig{Env: "dev"}).IsProd() {
		t.Fatal("dev env must not report prod")
	}
	if !(AppConfig{Env: "prod"}).IsProd() {
		t.Fatal("prod env should report prod")
	}
}
