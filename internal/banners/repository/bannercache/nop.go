package bannercache

import (
	"context"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
)

// Nop is used when no redis address is configured: every read misses.
type Nop struct{}

func (Nop) SetGroupBanners(context.Context, int64, []models.Banner) error {
	return nil
}

func (Nop) GetGroupBanners(context.Context, int64) ([]models.Banner, error) {
	return nil, bannerrepo.ErrNotFound
}

func (Nop) DeleteGroup(context.Context, int64) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
