package resolver

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math/rand"
	"sort"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	repo "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/pkg/logger"
)

// Catalog reads nodes and banners. Implementations return repo.ErrNotFound
// for dangling references.
type Catalog interface {
	GetNode(ctx context.Context, id int64) (models.ContentNode, error)
	GetBanner(ctx context.Context, id int64) (models.Banner, error)
	GetGroupBanners(ctx context.Context, groupID int64) ([]models.Banner, error)
}

type ImageStore interface {
	Exists(img models.Image) bool
	OnDisk(ctx context.Context, img models.Image) (bool, error)
	Variant(ctx context.Context, img models.Image, t models.Transform, width, height int) (models.Image, error)
}

// Resolver picks the effective banner of a content node, climbing to the
// parent node when the node has nothing usable. It holds no mutable state.
type Resolver struct {
	catalog  Catalog
	images   ImageStore
	lg       logger.Logger
	intn     func(n int) int
	inherit  bool
	widget   string
	tr       models.Transform
	maxDepth int
}

type Option func(*Resolver)

// WithIntn replaces the source used to pick a random group member.
func WithIntn(intn func(n int) int) Option {
	return func(r *Resolver) {
		r.intn = intn
	}
}

func New(catalog Catalog, images ImageStore, cfg config.Banners, lg logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:  catalog,
		images:   images,
		lg:       lg,
		intn:     rand.Intn,
		inherit:  cfg.Inherit(),
		widget:   cfg.CarouselWidget,
		tr:       models.Transform(cfg.Transform),
		maxDepth: cfg.MaxDepth,
	}

	if !r.tr.Valid() {
		lg.Warnf("unknown banner transform %q, using %q", cfg.Transform, models.TransformCrop)
		r.tr = models.TransformCrop
	}

	if r.maxDepth <= 0 {
		r.maxDepth = 64 //nolint:gomnd
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ResolveBanner returns the node's banner, or the nearest ancestor's when
// inheritance is on. ok is false when nothing usable was found.
func (r *Resolver) ResolveBanner(ctx context.Context, node models.ContentNode) (models.Banner, bool, error) {
	b, ok, err := r.resolveBanner(ctx, node, make(map[int64]struct{}))
	if err != nil || !ok {
		return models.Banner{}, false, err
	}

	b.Image, err = r.variant(ctx, b.Image, r.tr, 0, 0)
	if err != nil {
		return models.Banner{}, false, err
	}

	return b, true, nil
}

func (r *Resolver) resolveBanner(ctx context.Context, node models.ContentNode,
	seen map[int64]struct{},
) (models.Banner, bool, error) {
	seen[node.ID] = struct{}{}

	b, ok, err := r.candidate(ctx, node)
	if err != nil {
		return models.Banner{}, false, err
	}

	if ok {
		valid, err := r.valid(ctx, b.Image)
		if err != nil {
			return models.Banner{}, false, err
		}

		if valid {
			return b, true, nil
		}
	}

	parent, ok, err := r.parent(ctx, node, seen)
	if err != nil || !ok {
		return models.Banner{}, false, err
	}

	return r.resolveBanner(ctx, parent, seen)
}

func (r *Resolver) candidate(ctx context.Context, node models.ContentNode) (models.Banner, bool, error) {
	switch node.BannerMode {
	case models.ModeImage:
		if node.BannerImage == nil {
			return models.Banner{}, false, nil
		}

		return models.Banner{Image: *node.BannerImage}, true, nil
	case models.ModeSingleBanner:
		return r.singleBanner(ctx, node)
	case models.ModeBannerGroup:
		if node.BannerGroupID == nil {
			return models.Banner{}, false, nil
		}

		banners, err := r.catalog.GetGroupBanners(ctx, *node.BannerGroupID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return models.Banner{}, false, nil
			}

			return models.Banner{}, false, fmt.Errorf("get group banners error: %w", err)
		}

		if len(banners) == 0 {
			return models.Banner{}, false, nil
		}

		return banners[r.intn(len(banners))], true, nil
	case models.ModeNone:
	}

	return models.Banner{}, false, nil
}

func (r *Resolver) singleBanner(ctx context.Context, node models.ContentNode) (models.Banner, bool, error) {
	if node.SingleBannerID == nil {
		return models.Banner{}, false, nil
	}

	b, err := r.catalog.GetBanner(ctx, *node.SingleBannerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Banner{}, false, nil
		}

		return models.Banner{}, false, fmt.Errorf("get banner error: %w", err)
	}

	return b, true, nil
}

func (r *Resolver) valid(ctx context.Context, img models.Image) (bool, error) {
	if !r.images.Exists(img) {
		return false, nil
	}

	ok, err := r.images.OnDisk(ctx, img)
	if err != nil {
		return false, fmt.Errorf("image on disk error: %w", err)
	}

	return ok, nil
}

func (r *Resolver) parent(ctx context.Context, node models.ContentNode,
	seen map[int64]struct{},
) (models.ContentNode, bool, error) {
	if !r.inherit || node.ParentID == nil {
		return models.ContentNode{}, false, nil
	}

	if _, ok := seen[*node.ParentID]; ok {
		r.lg.Warnf("content tree cycle: node %d points back to node %d", node.ID, *node.ParentID)

		return models.ContentNode{}, false, nil
	}

	if len(seen) >= r.maxDepth {
		r.lg.Warnf("banner fallback stopped at node %d: depth limit %d", node.ID, r.maxDepth)

		return models.ContentNode{}, false, nil
	}

	p, err := r.catalog.GetNode(ctx, *node.ParentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.ContentNode{}, false, nil
		}

		return models.ContentNode{}, false, fmt.Errorf("get parent node error: %w", err)
	}

	return p, true, nil
}

// ResolveAllBanners returns every banner the node displays, ordered by sort
// order. A single image or banner only counts when its file is on disk; group
// members are taken as they are.
func (r *Resolver) ResolveAllBanners(ctx context.Context, node models.ContentNode) ([]models.Banner, error) {
	banners, err := r.resolveAll(ctx, node, make(map[int64]struct{}))
	if err != nil {
		return nil, err
	}

	for i := range banners {
		banners[i].Image, err = r.variant(ctx, banners[i].Image, r.tr, 0, 0)
		if err != nil {
			return nil, err
		}
	}

	return banners, nil
}

func (r *Resolver) resolveAll(ctx context.Context, node models.ContentNode,
	seen map[int64]struct{},
) ([]models.Banner, error) {
	seen[node.ID] = struct{}{}

	var (
		set    []models.Banner
		single *models.Banner
	)

	switch node.BannerMode {
	case models.ModeImage:
		if node.BannerImage != nil {
			single = &models.Banner{Image: *node.BannerImage}
		}
	case models.ModeSingleBanner:
		b, ok, err := r.singleBanner(ctx, node)
		if err != nil {
			return nil, err
		}

		if ok {
			single = &b
		}
	case models.ModeBannerGroup:
		if node.BannerGroupID != nil {
			banners, err := r.catalog.GetGroupBanners(ctx, *node.BannerGroupID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("get group banners error: %w", err)
			}

			set = make([]models.Banner, len(banners))
			copy(set, banners)
			sort.SliceStable(set, func(i, j int) bool {
				return set[i].SortOrder < set[j].SortOrder
			})
		}
	case models.ModeNone:
	}

	if single != nil {
		ok, err := r.images.OnDisk(ctx, single.Image)
		if err != nil {
			return nil, fmt.Errorf("image on disk error: %w", err)
		}

		if ok {
			set = []models.Banner{*single}
		}
	}

	if len(set) != 0 {
		return set, nil
	}

	parent, ok, err := r.parent(ctx, node, seen)
	if err != nil || !ok {
		return nil, err
	}

	return r.resolveAll(ctx, parent, seen)
}

// HasCarousel is true only for a carousel-enabled group that yields more than
// one banner. A single banner is shown as a static image.
func (r *Resolver) HasCarousel(ctx context.Context, node models.ContentNode) (bool, error) {
	if !node.Carousel() {
		return false, nil
	}

	banners, err := r.ResolveAllBanners(ctx, node)
	if err != nil {
		return false, err
	}

	return len(banners) > 1, nil
}

func (r *Resolver) EffectiveImage(ctx context.Context, node models.ContentNode) (models.Image, bool, error) {
	b, ok, err := r.ResolveBanner(ctx, node)
	if err != nil || !ok {
		return models.Image{}, false, err
	}

	return b.Image, true, nil
}

// EffectiveImageSized returns a variant of the effective image. Zero means
// "not given": width alone scales by width, height alone by height, both use
// the configured transform.
func (r *Resolver) EffectiveImageSized(ctx context.Context, node models.ContentNode,
	width, height int,
) (models.Image, bool, error) {
	img, ok, err := r.EffectiveImage(ctx, node)
	if err != nil || !ok {
		return models.Image{}, false, err
	}

	img, err = r.variant(ctx, img, r.tr, width, height)
	if err != nil {
		return models.Image{}, false, err
	}

	return img, true, nil
}

func (r *Resolver) BannerURL(ctx context.Context, node models.ContentNode, width, height int) (string, bool, error) {
	img, ok, err := r.EffectiveImageSized(ctx, node, width, height)
	if err != nil || !ok {
		return "", false, err
	}

	return img.URL, true, nil
}

func (r *Resolver) BannerCSS(ctx context.Context, node models.ContentNode, width, height int) (string, bool, error) {
	url, ok, err := r.BannerURL(ctx, node, width, height)
	if err != nil || !ok {
		return "", false, err
	}

	return "background-image: url(" + html.EscapeString(url) + ")", true, nil
}

// RenderMarkup builds what the rendering layer draws for node. An empty
// transform means the configured one.
func (r *Resolver) RenderMarkup(ctx context.Context, node models.ContentNode,
	width, height int, t models.Transform,
) (models.Markup, error) {
	if t == "" {
		t = r.tr
	}

	var banners []models.Banner

	if node.Carousel() {
		var err error

		banners, err = r.ResolveAllBanners(ctx, node)
		if err != nil {
			return models.Markup{}, err
		}
	}

	if len(banners) > 1 {
		c := models.Carousel{
			Widget: r.widget,
			Items:  make([]models.CarouselItem, 0, len(banners)),
		}

		for _, b := range banners {
			img, err := r.variant(ctx, b.Image, t, width, height)
			if err != nil {
				return models.Markup{}, err
			}

			c.Items = append(c.Items, models.CarouselItem{Image: img, Title: b.Title})
		}

		return models.Markup{Carousel: &c}, nil
	}

	b, ok, err := r.ResolveBanner(ctx, node)
	if err != nil || !ok {
		return models.Markup{}, err
	}

	b.Image, err = r.variant(ctx, b.Image, t, width, height)
	if err != nil {
		return models.Markup{}, err
	}

	return models.Markup{Banner: &b}, nil
}

// variant asks the store for a sized copy of img; with no size it returns the
// original with its public URL filled in.
func (r *Resolver) variant(ctx context.Context, img models.Image, t models.Transform,
	width, height int,
) (models.Image, error) {
	switch {
	case width > 0 && height > 0:
	case width > 0:
		t = models.TransformWidth
	case height > 0:
		t = models.TransformHeight
	default:
		t = ""
	}

	v, err := r.images.Variant(ctx, img, t, width, height)
	if err != nil {
		return models.Image{}, fmt.Errorf("image variant error: %w", err)
	}

	return v, nil
}
