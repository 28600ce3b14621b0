// Package periods reads period-history snapshots from the record store
// that owns them. Sources are read-only: one snapshot per call, no
// subscriptions, no writes back.
package periods

import (
	"context"
	"errors"

	"github.com/antoniostano/cadence/internal/cycle"
)

var ErrUnknownUser = errors.New("periods: no history for user")

// Source returns a user's intervals in start-date order.
type Source interface {
	Snapshot(ctx context.Context, userID string) ([]cycle.Interval, error)
	Mode() string
	Close() error
}
