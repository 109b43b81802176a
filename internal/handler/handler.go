package handler

import (
	"context"

	"tutorly/internal/service"
	"tutorly/pkg/payment"
)

// Confirmer is the orchestrator surface callback handlers depend on.
type Confirmer interface {
	Confirm(ctx context.Context, provider payment.Provider, p payment.Payload) service.ConfirmResult
}
