package ports

import "context"

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string
	Version   string
	Metadata  map[string]string
	CreatedAt string
}

// SecretReader resolves credentials (database and Redis passwords) at startup.
// Path format depends on the backend:
//   - env:   the environment variable name
//   - aws:   "mcf-insight-hub/database"
//   - vault: "secret/data/mcf-insight-hub/database"
type SecretReader interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
