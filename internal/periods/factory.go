package periods

import (
	"context"
	"strings"
)

// NewSource creates a postgres-backed source when configured, otherwise in-memory.
func NewSource(ctx context.Context, databaseURL string, attempts int) (Source, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemorySource(), nil
	}
	return NewPostgresSource(ctx, databaseURL, attempts)
}
