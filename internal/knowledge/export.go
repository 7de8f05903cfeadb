package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ExportToFile dumps up to limit records to a JSON file. Used by the nightly
// export job and by manual maintenance.
func ExportToFile(ctx context.Context, store Store, path string, limit int) (int, error) {
	recs, err := store.ExportAll(ctx, limit)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to ensure export dir: %w", err)
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(recs), nil
}
