package migrate

import (
	"os"
	"strings"
	"testing"
)

const migrationsDir = "migrations"

func TestValidateMigrationsDir(t *testing.T) {
	if err := ValidateDir(migrationsDir); err != nil {
		t.Fatalf("migration validation failed: %v", err)
	}
}

func TestMigrationsCoverCoreTables(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var combined strings.Builder
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		body, err := os.ReadFile(migrationsDir + "/" + entry.Name())
		if err != nil {
			t.Fatalf("read migration %s: %v", entry.Name(), err)
		}
		combined.Write(body)
	}

	sql := combined.String()
	for _, table := range []string{
		"customers", "addresses", "products", "product_variants",
		"pizza_crusts", "crust_fillings",
		"orders", "order_items", "order_status_history",
		"payments", "receipts",
	} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Fatalf("missing CREATE TABLE for %s", table)
		}
	}
}
