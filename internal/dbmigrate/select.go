package dbmigrate

import (
	"fmt"

	"github.com/nutriexpert/api/internal/config"
)

const DefaultMigrationsDir = "migrations"

// Target describes the connection migrations will run against: the URL,
// the env var it came from, and optional non-fatal advice for the operator.
type Target struct {
	URL     string
	Source  string
	Warning string
}

// ResolveTarget picks the connection string for DDL. Direct connections
// are preferred: pgbouncer-style poolers break goose's session state.
// With requireDirect, only DATABASE_URL_DIRECT is accepted (startup
// migrations refuse to guess).
func ResolveTarget(cfg *config.Config, requireDirect bool) (Target, error) {
	if requireDirect {
		if cfg.DatabaseURLDirect == "" {
			return Target{}, fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
		}
		return Target{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	}

	switch {
	case cfg.DatabaseURLDirect != "":
		return Target{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	case cfg.DatabaseURLRaw != "":
		return Target{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"}, nil
	case cfg.DatabaseURLPooled != "":
		return Target{
			URL:     cfg.DatabaseURLPooled,
			Source:  "DATABASE_URL_POOLED",
			Warning: "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT",
		}, nil
	}

	return Target{}, fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
