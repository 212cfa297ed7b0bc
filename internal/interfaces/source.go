package interfaces

import (
	"context"

	"sentcorr/internal/types"
)

// NewsSource yields raw news rows from one place: a file, a feed or a page.
type NewsSource interface {
	Name() string
	FetchNews(ctx context.Context) ([]types.RawNews, error)
}

// PriceSource yields raw daily bars.
type PriceSource interface {
	Name() string
	FetchPrices(ctx context.Context) ([]types.RawPrice, error)
}
