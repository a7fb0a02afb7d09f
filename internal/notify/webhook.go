package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/carpool/internal/models"
)

// WebhookNotifier posts match events to an external driver-app backend.
// When a WS registry is attached it is tried first; the webhook is the
// fallback for drivers without a live session.
type WebhookNotifier struct {
	Endpoint string
	Client   *http.Client
	WS       *WSRegistry
}

func NewWebhookNotifier(endpoint string, ws *WSRegistry) *WebhookNotifier {
	return &WebhookNotifier{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}, WS: ws}
}

func (n *WebhookNotifier) MatchRequested(driverID string, m models.Match) error {
	if n.WS != nil {
		if err := n.WS.MatchRequested(driverID, m); err == nil {
			return nil
		} else if !errors.Is(err, ErrNoSession) {
			return err
		}
	}
	if n.Endpoint == "" {
		return ErrNoSession
	}
	b, err := json.Marshal(map[string]any{"driver_id": driverID, "match": m})
	if err != nil {
		return err
	}
	resp, err := n.Client.Post(n.Endpoint, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
