package audit

import (
	"go.uber.org/zap"

	"shiptrack/internal/orders"
	"shiptrack/internal/tracking"
)

func NewModule(locator *orders.Locator, verifier *tracking.Verifier, logger *zap.Logger) *Controller {
	engine := NewEngine(locator, verifier, logger)
	return NewController(engine, logger)
}
