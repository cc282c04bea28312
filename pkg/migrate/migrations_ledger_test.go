package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verdecoop/verdecoop-backend/pkg/migrate"
)

func TestCertificatesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_certificates.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no certificates migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS certificates",
		"CREATE UNIQUE INDEX IF NOT EXISTS certificates_serial_key ON certificates (serial)",
		"CREATE TABLE IF NOT EXISTS certificate_counters",
		"PRIMARY KEY (country, standard, project_id, year)",
		"CHECK (last_seq >= 0)",
		"DROP TABLE IF EXISTS certificate_counters",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAccountsMigrationGuardsBalance(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_accounts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no accounts migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}

	if !strings.Contains(string(data), "CHECK (balance >= 0)") {
		t.Errorf("accounts migration missing non-negative balance check")
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}
