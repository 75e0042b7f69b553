package ports

import (
	"context"

	"uniscan/domain/promoter"
)

// PromoterRepository stores the promoter profile
type PromoterRepository interface {
	// Get returns the profile; core.ErrProfileNotFound when not configured
	Get(ctx context.Context) (*promoter.Profile, error)

	// Upsert creates or replaces the profile
	Upsert(ctx context.Context, p *promoter.Profile) (*promoter.Profile, error)
}
