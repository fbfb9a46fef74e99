package orders

import (
	"go.uber.org/zap"

	"shiptrack/internal/tracking"
	"shiptrack/internal/upstream"
)

func NewModule(client *upstream.Client, verifier *tracking.Verifier, logger *zap.Logger) (*Locator, *Controller) {
	locator := NewLocator(client, logger)
	return locator, NewController(locator, verifier, logger)
}
