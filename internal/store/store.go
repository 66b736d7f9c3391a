// Package store persists and reads catalog data in Postgres.
package store

import (
	"errors"
	"time"

	"github.com/pultar/gamepass-service/internal/catalog"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Period is a contiguous date range during which a product was present in
// a collection/market. End is nil while the period is still open.
type Period struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// GameDetails combines the localized product record with its observed
// availability dates.
type GameDetails struct {
	catalog.Game
	AvailabilityDates []time.Time `json:"availabilityHistory,omitempty"`
}
