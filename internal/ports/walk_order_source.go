package ports

import (
	"context"
	"mail-route-tracker/internal/domain"
)

// Port: static per-area walking paths.
type WalkOrderSource interface {
	WalkOrder(ctx context.Context) (domain.WalkOrder, error)
}
