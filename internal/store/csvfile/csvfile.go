package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dataweb/internal/store"
)

// Write creates (or truncates) the CSV file at path and writes the table.
// Intermediate directories are created automatically.
func Write(path string, table store.Table) error {
	if path == "" {
		return fmt.Errorf("csv: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	if err := Encode(f, table); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes the header followed by every record. Padded cells are empty.
func Encode(w io.Writer, table store.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := writer.WriteAll(table.StringRecords()); err != nil {
		return fmt.Errorf("csv: write rows: %w", err)
	}
	return nil
}
