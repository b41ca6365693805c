package bannerservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	repo "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/pkg/logger"
)

const (
	pageTabName    = "Root.Content.Images"
	defaultTabName = "Root.Images"
)

type BannerService struct {
	bannerRepo  Repository
	bannerCache Cache
	images      ImageProber
	cfg         config.Banners
	restrict    *models.BannerGroup
	lg          logger.Logger
}

type Repository interface {
	GetNode(context.Context, int64) (models.ContentNode, error)
	CreateNode(context.Context, models.ContentNode) (int64, error)
	UpdateNodeBanner(context.Context, models.ContentNode) error
	GetBanner(context.Context, int64) (models.Banner, error)
	CreateBanner(context.Context, models.Banner) (int64, error)
	ListBanners(context.Context, repo.ListBannersRequest) ([]models.Banner, error)
	GetGroupBanners(context.Context, int64) ([]models.Banner, error)
	GetGroup(context.Context, int64) (models.BannerGroup, error)
	GetGroupByName(context.Context, string) (models.BannerGroup, error)
	ListGroups(context.Context) ([]models.BannerGroup, error)
	CreateGroup(context.Context, models.BannerGroup) (int64, error)
	GetImage(context.Context, int64) (models.Image, error)
	CreateImage(context.Context, models.Image) (int64, error)
	Shutdown(context.Context) error
}

type Cache interface {
	GetGroupBanners(ctx context.Context, groupID int64) ([]models.Banner, error)
	SetGroupBanners(ctx context.Context, groupID int64, banners []models.Banner) error
	DeleteGroup(ctx context.Context, groupID int64) error
	Close() error
}

type ImageProber interface {
	Probe(ctx context.Context, filename string) (models.Image, error)
}

func New(bannerRepo Repository, bannerCache Cache, images ImageProber,
	cfg config.Banners, lg logger.Logger,
) *BannerService {
	return &BannerService{
		bannerRepo:  bannerRepo,
		bannerCache: bannerCache,
		images:      images,
		cfg:         cfg,
		lg:          lg,
	}
}

// LoadRestriction looks up the configured restrict-to-group by numeric id or
// by name. An unknown group leaves the choices unrestricted. It must be
// called before the service starts handling requests.
func (bs *BannerService) LoadRestriction(ctx context.Context) error {
	ident := bs.cfg.RestrictToGroup
	if ident == "" {
		return nil
	}

	var (
		g   models.BannerGroup
		err error
	)

	if id, perr := strconv.ParseInt(ident, 10, 64); perr == nil {
		g, err = bs.bannerRepo.GetGroup(ctx, id)
	} else {
		g, err = bs.bannerRepo.GetGroupByName(ctx, ident)
	}

	if errors.Is(err, repo.ErrNotFound) {
		bs.lg.Warnf("restrict to group %q: group not found, choices are unrestricted", ident)

		return nil
	} else if err != nil {
		return fmt.Errorf("get restrict group error: %w", err)
	}

	bs.restrict = &g

	return nil
}

func (bs *BannerService) GetNode(ctx context.Context, id int64) (models.ContentNode, error) {
	n, err := bs.bannerRepo.GetNode(ctx, id)
	if err != nil {
		return models.ContentNode{}, bs.notFound(err, "node")
	}

	return n, nil
}

func (bs *BannerService) GetBanner(ctx context.Context, id int64) (models.Banner, error) {
	b, err := bs.bannerRepo.GetBanner(ctx, id)
	if err != nil {
		return models.Banner{}, bs.notFound(err, "banner")
	}

	return b, nil
}

// GetGroupBanners returns the members of a group ordered by sort order,
// served from the cache when possible.
func (bs *BannerService) GetGroupBanners(ctx context.Context, groupID int64) ([]models.Banner, error) {
	banners, err := bs.bannerCache.GetGroupBanners(ctx, groupID)
	if err == nil {
		groupCacheLookups.WithLabelValues("hit").Inc()

		return banners, nil
	}

	groupCacheLookups.WithLabelValues("miss").Inc()

	if !errors.Is(err, repo.ErrNotFound) {
		bs.lg.Errorf("get group banners cache error: %s", err.Error())
	}

	banners, err = bs.bannerRepo.GetGroupBanners(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group banners error: %w", err)
	}

	if err := bs.bannerCache.SetGroupBanners(ctx, groupID, banners); err != nil {
		bs.lg.Errorf("set group banners cache error: %s", err.Error())
	}

	return banners, nil
}

func (bs *BannerService) CreateNode(ctx context.Context, req CreateNodeRequest) (int64, error) {
	n := models.ContentNode{
		ParentID:   req.ParentID,
		Kind:       req.Kind,
		Title:      req.Title,
		BannerMode: models.DefaultBannerMode,
	}

	if n.Kind == "" {
		n.Kind = models.KindPage
	}

	id, err := bs.bannerRepo.CreateNode(ctx, n)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, fmt.Errorf("parent node: %w", ErrNotFound)
		}

		return 0, fmt.Errorf("create node error: %w", err)
	}

	return id, nil
}

func (bs *BannerService) CreateGroup(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("group name is empty: %w", ErrInvalid)
	}

	id, err := bs.bannerRepo.CreateGroup(ctx, models.BannerGroup{Name: name})
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return 0, fmt.Errorf("group %q exists: %w", name, ErrInvalid)
		}

		return 0, fmt.Errorf("create group error: %w", err)
	}

	return id, nil
}

func (bs *BannerService) CreateBanner(ctx context.Context, req CreateBannerRequest) (int64, error) {
	if _, err := bs.bannerRepo.GetGroup(ctx, req.GroupID); err != nil {
		return 0, bs.notFound(err, "group")
	}

	b := models.Banner{
		GroupID:   req.GroupID,
		Title:     req.Title,
		SortOrder: req.SortOrder,
	}

	if req.ImageID != nil {
		img, err := bs.bannerRepo.GetImage(ctx, *req.ImageID)
		if err != nil {
			return 0, bs.notFound(err, "image")
		}

		b.Image = img
	}

	id, err := bs.bannerRepo.CreateBanner(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("create banner error: %w", err)
	}

	if err := bs.bannerCache.DeleteGroup(ctx, req.GroupID); err != nil {
		bs.lg.Errorf("delete group cache error: %s", err.Error())
	}

	return id, nil
}

// RegisterImage records a file that already exists under the image root.
func (bs *BannerService) RegisterImage(ctx context.Context, filename string) (models.Image, error) {
	img, err := bs.images.Probe(ctx, filename)
	if err != nil {
		return models.Image{}, fmt.Errorf("probe image %q: %w: %w", filename, ErrInvalid, err)
	}

	id, err := bs.bannerRepo.CreateImage(ctx, img)
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return models.Image{}, fmt.Errorf("image %q is registered: %w", filename, ErrInvalid)
		}

		return models.Image{}, fmt.Errorf("create image error: %w", err)
	}

	img.ID = id

	return img, nil
}

func (bs *BannerService) UpdateSelection(ctx context.Context, nodeID int64, req SelectionRequest) error { //nolint:cyclop
	mode, err := models.ParseBannerMode(req.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	n, err := bs.bannerRepo.GetNode(ctx, nodeID)
	if err != nil {
		return bs.notFound(err, "node")
	}

	if mode == models.ModeBannerGroup && bs.restrict != nil {
		return fmt.Errorf("banner groups are disabled: %w", ErrNotAllowed)
	}

	if req.GroupID != nil {
		if bs.restrict != nil {
			return fmt.Errorf("banner groups are disabled: %w", ErrNotAllowed)
		}

		if _, err := bs.bannerRepo.GetGroup(ctx, *req.GroupID); err != nil {
			return bs.notFound(err, "group")
		}

		n.BannerGroupID = req.GroupID
	}

	if req.BannerID != nil {
		b, err := bs.bannerRepo.GetBanner(ctx, *req.BannerID)
		if err != nil {
			return bs.notFound(err, "banner")
		}

		if bs.restrict != nil && b.GroupID != bs.restrict.ID {
			return fmt.Errorf("banner %d is outside group %q: %w", b.ID, bs.restrict.Name, ErrNotAllowed)
		}

		n.SingleBannerID = req.BannerID
	}

	if req.ImageID != nil {
		img, err := bs.bannerRepo.GetImage(ctx, *req.ImageID)
		if err != nil {
			return bs.notFound(err, "image")
		}

		n.BannerImage = &img
	}

	n.BannerMode = mode
	n.CarouselEnabled = req.CarouselEnabled && mode == models.ModeBannerGroup

	if err := bs.bannerRepo.UpdateNodeBanner(ctx, n); err != nil {
		return bs.notFound(err, "node")
	}

	return nil
}

func (bs *BannerService) SelectionOptions(ctx context.Context, nodeID int64) (SelectionOptions, error) {
	n, err := bs.bannerRepo.GetNode(ctx, nodeID)
	if err != nil {
		return SelectionOptions{}, bs.notFound(err, "node")
	}

	opts := SelectionOptions{
		TabName: bs.tabName(n),
		Current: n,
	}

	var req repo.ListBannersRequest

	if bs.restrict != nil {
		req.GroupID = bs.restrict.ID
	} else {
		opts.Modes = append(opts.Modes, models.ModeBannerGroup)

		opts.Groups, err = bs.bannerRepo.ListGroups(ctx)
		if err != nil {
			return SelectionOptions{}, fmt.Errorf("list groups error: %w", err)
		}
	}

	opts.Modes = append(opts.Modes, models.ModeSingleBanner, models.ModeImage)

	opts.Banners, err = bs.bannerRepo.ListBanners(ctx, req)
	if err != nil {
		return SelectionOptions{}, fmt.Errorf("list banners error: %w", err)
	}

	return opts, nil
}

func (bs *BannerService) tabName(n models.ContentNode) string {
	if bs.cfg.TabName != "" {
		return bs.cfg.TabName
	}

	if n.Kind == models.KindPage {
		return pageTabName
	}

	return defaultTabName
}

// notFound keeps repo.ErrNotFound in the chain so the resolver still sees
// dangling references as missing.
func (bs *BannerService) notFound(err error, what string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", what, ErrNotFound, err)
	}

	return fmt.Errorf("get %s error: %w", what, err)
}

// BackgroundRefresh warms the group cache every ttl until ctx is done.
func (bs *BannerService) BackgroundRefresh(ctx context.Context, ttl time.Duration) {
	t := time.NewTicker(ttl)
	defer t.Stop()

	if err := bs.refresh(ctx); err != nil {
		bs.lg.Errorf("refresh error: %s", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := bs.refresh(ctx); err != nil {
				bs.lg.Errorf("refresh error: %s", err.Error())
			}
		}
	}
}

func (bs *BannerService) refresh(ctx context.Context) error {
	groups, err := bs.bannerRepo.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list groups error: %w", err)
	}

	for _, g := range groups {
		banners, err := bs.bannerRepo.GetGroupBanners(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("get group banners error: %w", err)
		}

		if err := bs.bannerCache.SetGroupBanners(ctx, g.ID, banners); err != nil {
			return fmt.Errorf("set group banners cache error: %w", err)
		}
	}

	bs.lg.Debugf("group cache refreshed: %d groups", len(groups))

	return nil
}

func (bs *BannerService) Shutdown(ctx context.Context) error {
	if err := bs.bannerCache.Close(); err != nil {
		bs.lg.Errorf("close banner cache error: %s", err.Error())
	}

	if err := bs.bannerRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown banner repo error: %w", err)
	}

	return nil
}
