package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

// BannerCache keeps the ordered member list of each banner group.
type BannerCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.RedisCache) (BannerCache, error) {
	rdb, err := redistools.Connect(ctx, cfg)
	if err != nil {
		return BannerCache{}, fmt.Errorf("connect error: %w", err)
	}

	return BannerCache{
		rdb:     rdb,
		expTime: cfg.ExpTime,
	}, nil
}

func groupKey(groupID int64) string {
	return fmt.Sprintf("group:%d:banners", groupID)
}

func (bc BannerCache) SetGroupBanners(ctx context.Context, groupID int64, banners []models.Banner) error {
	bannersJSON, err := json.Marshal(banners)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := bc.rdb.Set(ctx, groupKey(groupID), bannersJSON, bc.expTime).Err(); err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

func (bc BannerCache) GetGroupBanners(ctx context.Context, groupID int64) ([]models.Banner, error) {
	bannersJSON, err := bc.rdb.Get(ctx, groupKey(groupID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, bannerrepo.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get error: %w", err)
	}

	var banners []models.Banner

	if err := json.Unmarshal(bannersJSON, &banners); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	return banners, nil
}

func (bc BannerCache) DeleteGroup(ctx context.Context, groupID int64) error {
	if err := bc.rdb.Del(ctx, groupKey(groupID)).Err(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

func (bc BannerCache) Close() error {
	if err := bc.rdb.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}

	return nil
}
