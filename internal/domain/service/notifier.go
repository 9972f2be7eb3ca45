package service

import (
	"context"

	"FinScore/internal/domain/models"
)

// Notifier delivers noteworthy analysis events to an external sink.
type Notifier interface {
	NotifyDelta(ctx context.Context, symbol string, d *models.Delta) error
	NotifyRegimeChange(ctx context.Context, prev, cur *models.RegimeClassification) error
}

// Broadcaster pushes events to connected live clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}
