package commands

import (
	"fmt"
	"os"

	"github.com/benvon/quizmify/internal/config"
	"github.com/benvon/quizmify/internal/database"
)

// openDB loads the configuration and connects to its database; callers must invoke the returned closer
func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	closer := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return db, closer, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
