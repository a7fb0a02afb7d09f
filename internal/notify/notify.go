// Package notify pushes match events to drivers: over a live websocket
// session when one exists, otherwise to a configured webhook.
package notify

import (
	"errors"

	"github.com/example/carpool/internal/models"
)

// Notifier tells a driver that a passenger requested a match on their offer.
type Notifier interface {
	MatchRequested(driverID string, m models.Match) error
}

var ErrNoSession = errors.New("no websocket session")
