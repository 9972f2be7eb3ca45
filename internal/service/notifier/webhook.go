package notifier

import (
	"context"
	"fmt"
	"time"

	"FinScore/internal/domain/models"
	dsvc "FinScore/internal/domain/service"
	xhttp "FinScore/pkg/http"
	"FinScore/pkg/logger"
)

const (
	EventMajorDelta   = "major_delta"
	EventRegimeChange = "regime_change"
)

// Event is the webhook body.
type Event struct {
	Type      string      `json:"type"`
	Symbol    string      `json:"symbol,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type regimeChange struct {
	From     models.Regime                `json:"from"`
	To       models.Regime                `json:"to"`
	Current  *models.RegimeClassification `json:"current"`
	Previous *models.RegimeClassification `json:"previous,omitempty"`
}

// Webhook posts events as JSON to a fixed URL.
type Webhook struct {
	url    string
	client *xhttp.Client
	logger *logger.Logger
}

func NewWebhook(url string, client *xhttp.Client, l *logger.Logger) *Webhook {
	return &Webhook{url: url, client: client, logger: l}
}

func (w *Webhook) NotifyDelta(ctx context.Context, symbol string, d *models.Delta) error {
	if d == nil {
		return nil
	}
	return w.post(ctx, Event{Type: EventMajorDelta, Symbol: symbol, Data: d, Timestamp: time.Now().UTC()})
}

func (w *Webhook) NotifyRegimeChange(ctx context.Context, prev, cur *models.RegimeClassification) error {
	if cur == nil {
		return nil
	}
	body := regimeChange{To: cur.Regime, Current: cur, Previous: prev}
	if prev != nil {
		body.From = prev.Regime
	}
	return w.post(ctx, Event{Type: EventRegimeChange, Data: body, Timestamp: time.Now().UTC()})
}

func (w *Webhook) post(ctx context.Context, ev Event) error {
	start := time.Now()
	if err := w.client.PostJSON(ctx, w.url, ev, map[string]string{"X-FinScore-Event": ev.Type}); err != nil {
		return fmt.Errorf("webhook %s: %w", ev.Type, err)
	}
	if w.logger != nil {
		w.logger.Debug("webhook delivered",
			logger.String("event", ev.Type),
			logger.String("symbol", ev.Symbol),
			logger.Duration("took", time.Since(start)),
		)
	}
	return nil
}

// Noop discards every event. It is used when no webhook URL is configured.
type Noop struct{}

func (Noop) NotifyDelta(context.Context, string, *models.Delta) error { return nil }

func (Noop) NotifyRegimeChange(context.Context, *models.RegimeClassification, *models.RegimeClassification) error {
	return nil
}

var (
	_ dsvc.Notifier = (*Webhook)(nil)
	_ dsvc.Notifier = Noop{}
)
