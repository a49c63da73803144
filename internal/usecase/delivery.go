package usecase

import (
	"context"

	"scholarship-telegram-bot/internal/domain"
)

// ApplicationDelivery forwards a submitted application to an external system (CRM, webhooks).
type ApplicationDelivery interface {
	SendApplication(ctx context.Context, app domain.Application) error
}
