package database

import (
	"io/fs"

	"github.com/iliyamo/cms-backend/internal/database/migrations"
)

func migrationsFS() ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
