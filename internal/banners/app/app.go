package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/page_banners/internal/banners/api/server"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannercache"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannercache/redis"
	brpostgres "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo/postgres"
	brsqlite "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo/sqlite"
	"github.com/Leopold1975/page_banners/internal/banners/repository/imagestore/disk"
	urpostgres "github.com/Leopold1975/page_banners/internal/banners/repository/userrepo/postgres"
	ursqlite "github.com/Leopold1975/page_banners/internal/banners/repository/userrepo/sqlite"
	"github.com/Leopold1975/page_banners/internal/banners/services/authservice"
	"github.com/Leopold1975/page_banners/internal/banners/services/bannerservice"
	"github.com/Leopold1975/page_banners/internal/banners/services/resolver"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type BannersApp struct {
	s   Server
	bs  *bannerservice.BannerService
	lg  logger.Logger
	cfg config.Config
}

func New(ctx context.Context, cfg config.Config) (BannersApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return BannersApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	bannerRepo, userRepo, err := repositories(ctx, cfg)
	if err != nil {
		return BannersApp{}, err
	}

	var bc bannerservice.Cache = bannercache.Nop{}

	if cfg.RedisCache.Addr != "" {
		bc, err = redis.New(ctx, cfg.RedisCache)
		if err != nil {
			return BannersApp{}, fmt.Errorf("redis banner cache initializing error: %w", err)
		}
	} else {
		lg.Info("redis address is empty, group cache disabled")
	}

	images := disk.New(cfg.Images)

	bannerService := bannerservice.New(bannerRepo, bc, images, cfg.Banners, lg)
	if err := bannerService.LoadRestriction(ctx); err != nil {
		return BannersApp{}, fmt.Errorf("load restriction error: %w", err)
	}

	if cfg.RedisCache.Addr != "" {
		go bannerService.BackgroundRefresh(ctx, cfg.RedisCache.ExpTime)
	}

	res := resolver.New(bannerService, images, cfg.Banners, lg)
	authService := authservice.New(userRepo, cfg.Auth)

	s := server.New(cfg.Server, bannerService, authService, res, lg)

	return BannersApp{
		s:   s,
		bs:  bannerService,
		lg:  lg,
		cfg: cfg,
	}, nil
}

func repositories(ctx context.Context, cfg config.Config) (bannerservice.Repository, authservice.Repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		br, err := brsqlite.New(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite banner repo initializing error: %w", err)
		}

		return br, ursqlite.New(br.DB()), nil
	default:
		br, err := brpostgres.New(ctx, cfg.PostgresDB)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres banner repo initializing error: %w", err)
		}

		return br, urpostgres.New(br.Pool()), nil
	}
}

func (ba *BannersApp) Run(ctx context.Context) {
	ba.lg.Infof("STARTED SERVER ON %s", ba.cfg.Server.Addr)

	go func() {
		if err := ba.s.Start(ctx); err != nil {
			ba.lg.Errorf("server start error: %s", err.Error())
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := ba.Stop(ctxS); err != nil { //nolint:contextcheck
		ba.lg.Errorf("shutdown error: %s", err.Error())
	}
}

func (ba *BannersApp) Stop(ctx context.Context) error {
	if err := ba.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := ba.bs.Shutdown(ctx); err != nil {
		return fmt.Errorf("banner service shutdown error: %w", err)
	}

	ba.lg.Info("Shut down successfully")

	return nil
}
