package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(migrationsDir, name))
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_settings_table.sql",
		"00002_create_designs_table.sql",
		"00003_create_design_images_table.sql",
		"00004_create_orders_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		contentStr := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"settings":      "00001_create_settings_table.sql",
		"designs":       "00002_create_designs_table.sql",
		"design_images": "00003_create_design_images_table.sql",
		"orders":        "00004_create_orders_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		contentStr := readMigration(t, migrationFile)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName+" (") {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName+";") {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestDesignsTableEnforcesStockRules(t *testing.T) {
	contentStr := readMigration(t, "00002_create_designs_table.sql")

	for _, fragment := range []string{
		"UNIQUE (design_code)",
		"CHECK (stock_quantity >= 0)",
		"CHECK (stock IN ('In Stock', 'Out of Stock'))",
	} {
		if !strings.Contains(contentStr, fragment) {
			t.Errorf("Designs table missing constraint: %s", fragment)
		}
	}
}

func TestDesignImagesCascadeWithDesign(t *testing.T) {
	contentStr := readMigration(t, "00003_create_design_images_table.sql")

	if !strings.Contains(contentStr, "REFERENCES designs(id) ON DELETE CASCADE") {
		t.Error("Design images are not removed with their design")
	}
}

func TestOrdersTableHasStatusConstraint(t *testing.T) {
	contentStr := readMigration(t, "00004_create_orders_table.sql")

	for _, status := range []string{"'Pending'", "'Verifying'", "'Processing'", "'Shipped'", "'Completed'", "'Cancelled'"} {
		if !strings.Contains(contentStr, status) {
			t.Errorf("Orders table status constraint missing value: %s", status)
		}
	}

	if !strings.Contains(contentStr, "CHECK (completed_at IS NULL OR cancelled_at IS NULL)") {
		t.Error("Orders table allows both terminal timestamps")
	}
}

func TestOrdersTableHasNoDesignForeignKey(t *testing.T) {
	contentStr := readMigration(t, "00004_create_orders_table.sql")

	// orders keep a snapshot of the design and must survive its deletion
	if strings.Contains(contentStr, "REFERENCES designs") {
		t.Error("Orders table references designs")
	}
}
