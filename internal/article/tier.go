package article

import (
	"context"

	"github.com/jonesrussell/north-cloud/harvester/internal/dom"
)

// Tier is one stage of the fallback chain.
type Tier interface {
	Name() string
	Extract(ctx context.Context, page *dom.Page) (Partial, error)
}

// TierFunc adapts a function to Tier.
type TierFunc struct {
	TierName string
	Fn       func(ctx context.Context, page *dom.Page) (Partial, error)
}

// Name implements Tier.
func (t TierFunc) Name() string { return t.TierName }

// Extract implements Tier.
func (t TierFunc) Extract(ctx context.Context, page *dom.Page) (Partial, error) {
	return t.Fn(ctx, page)
}
