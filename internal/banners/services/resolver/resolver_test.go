package resolver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	repo "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/banners/repository/imagestore/disk"
	"github.com/Leopold1975/page_banners/internal/banners/services/resolver"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type catalog struct {
	nodes   map[int64]models.ContentNode
	banners map[int64]models.Banner
	groups  map[int64][]models.Banner
}

func (c *catalog) GetNode(_ context.Context, id int64) (models.ContentNode, error) {
	n, ok := c.nodes[id]
	if !ok {
		return models.ContentNode{}, repo.ErrNotFound
	}

	return n, nil
}

func (c *catalog) GetBanner(_ context.Context, id int64) (models.Banner, error) {
	b, ok := c.banners[id]
	if !ok {
		return models.Banner{}, repo.ErrNotFound
	}

	return b, nil
}

func (c *catalog) GetGroupBanners(_ context.Context, groupID int64) ([]models.Banner, error) {
	return c.groups[groupID], nil
}

func ptr(v int64) *int64 {
	return &v
}

type ResolverSuite struct {
	suite.Suite
	ctx     context.Context
	catalog *catalog
	store   *disk.Store
	cfg     config.Banners

	hero    models.Image
	alt     models.Image
	missing models.Image
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()

	root := s.T().TempDir()
	for _, name := range []string{"hero.jpg", "alt.jpg"} {
		s.Require().NoError(os.WriteFile(filepath.Join(root, name), []byte("x"), 0o600))
	}

	s.store = disk.New(config.Images{Root: root, BaseURL: "/assets"})
	s.catalog = &catalog{
		nodes:   make(map[int64]models.ContentNode),
		banners: make(map[int64]models.Banner),
		groups:  make(map[int64][]models.Banner),
	}
	s.cfg = config.Banners{CarouselWidget: "slides", Transform: "crop", MaxDepth: 64}

	s.hero = models.Image{ID: 1, Filename: "hero.jpg", Width: 1200, Height: 400}
	s.alt = models.Image{ID: 2, Filename: "alt.jpg", Width: 800, Height: 200}
	s.missing = models.Image{ID: 3, Filename: "gone.jpg", Width: 100, Height: 100}
}

func (s *ResolverSuite) resolver(opts ...resolver.Option) *resolver.Resolver {
	return resolver.New(s.catalog, s.store, s.cfg, logger.Nop(), opts...)
}

func (s *ResolverSuite) addNode(n models.ContentNode) models.ContentNode {
	s.catalog.nodes[n.ID] = n

	return n
}

// addGroup stores members out of order so ordering is the resolver's job.
func (s *ResolverSuite) addGroup(id int64, members ...models.Banner) {
	for i := range members {
		members[i].GroupID = id
		s.catalog.banners[members[i].ID] = members[i]
	}

	s.catalog.groups[id] = members
}

func (s *ResolverSuite) abGroup() {
	s.addGroup(10,
		models.Banner{ID: 2, Title: "B", SortOrder: 2, Image: s.alt},
		models.Banner{ID: 1, Title: "A", SortOrder: 1, Image: s.hero},
	)
}

func titles(banners []models.Banner) []string {
	out := make([]string, 0, len(banners))
	for _, b := range banners {
		out = append(out, b.Title)
	}

	return out
}

func (s *ResolverSuite) TestNoneMode() {
	r := s.resolver()

	root := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeImage, BannerImage: &s.hero})
	lone := s.addNode(models.ContentNode{ID: 2, BannerMode: models.ModeNone})
	child := s.addNode(models.ContentNode{ID: 3, ParentID: &root.ID, BannerMode: models.ModeNone})

	_, ok, err := r.ResolveBanner(s.ctx, lone)
	s.Require().NoError(err)
	s.Require().False(ok)

	all, err := r.ResolveAllBanners(s.ctx, lone)
	s.Require().NoError(err)
	s.Require().Empty(all)

	all, err = r.ResolveAllBanners(s.ctx, child)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Require().Equal("/assets/hero.jpg", all[0].Image.URL)
}

func (s *ResolverSuite) TestGroupOrdering() {
	s.abGroup()
	node := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(10)})

	for pick := 0; pick < 2; pick++ {
		r := s.resolver(resolver.WithIntn(func(n int) int {
			s.Require().Equal(2, n)

			return pick
		}))

		b, ok, err := r.ResolveBanner(s.ctx, node)
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Require().Contains([]string{"A", "B"}, b.Title)

		all, err := r.ResolveAllBanners(s.ctx, node)
		s.Require().NoError(err)
		s.Require().Equal([]string{"A", "B"}, titles(all))
	}

	s.Require().Equal("B", s.catalog.groups[10][0].Title)
}

func (s *ResolverSuite) TestHasCarousel() {
	s.abGroup()
	s.addGroup(20, models.Banner{ID: 3, Title: "Solo", SortOrder: 1, Image: s.hero})

	r := s.resolver()

	tests := []struct {
		name string
		node models.ContentNode
		want bool
	}{
		{
			name: "one member",
			node: models.ContentNode{ID: 1, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(20), CarouselEnabled: true},
			want: false,
		},
		{
			name: "two members enabled",
			node: models.ContentNode{ID: 2, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(10), CarouselEnabled: true},
			want: true,
		},
		{
			name: "two members disabled",
			node: models.ContentNode{ID: 3, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(10)},
			want: false,
		},
		{
			name: "flag outside group mode",
			node: models.ContentNode{ID: 4, BannerMode: models.ModeImage, BannerImage: &s.hero, CarouselEnabled: true},
			want: false,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := r.HasCarousel(s.ctx, tt.node)
			s.Require().NoError(err)
			s.Require().Equal(tt.want, got)
		})
	}
}

func (s *ResolverSuite) TestFallbackThreeLevels() {
	s.catalog.banners[7] = models.Banner{ID: 7, Title: "Root", Image: s.hero}

	root := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeSingleBanner, SingleBannerID: ptr(7)})
	mid := s.addNode(models.ContentNode{ID: 2, ParentID: &root.ID, BannerMode: models.ModeNone})
	leaf := s.addNode(models.ContentNode{ID: 3, ParentID: &mid.ID, BannerMode: models.ModeBannerGroup})

	b, ok, err := s.resolver().ResolveBanner(s.ctx, leaf)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("Root", b.Title)
	s.Require().Equal("/assets/hero.jpg", b.Image.URL)
}

func (s *ResolverSuite) TestInvalidSingleBannerFallsBack() {
	s.catalog.banners[7] = models.Banner{ID: 7, Title: "Parent", Image: s.alt}
	s.catalog.banners[8] = models.Banner{ID: 8, Title: "Broken", Image: s.missing}

	parent := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeSingleBanner, SingleBannerID: ptr(7)})
	leaf := s.addNode(models.ContentNode{ID: 2, ParentID: &parent.ID, BannerMode: models.ModeSingleBanner, SingleBannerID: ptr(8)})
	dangling := s.addNode(models.ContentNode{ID: 3, ParentID: &parent.ID, BannerMode: models.ModeSingleBanner, SingleBannerID: ptr(99)})

	r := s.resolver()

	for _, n := range []models.ContentNode{leaf, dangling} {
		b, ok, err := r.ResolveBanner(s.ctx, n)
		s.Require().NoError(err)
		s.Require().True(ok)
		s.Require().Equal("Parent", b.Title)

		all, err := r.ResolveAllBanners(s.ctx, n)
		s.Require().NoError(err)
		s.Require().Equal([]string{"Parent"}, titles(all))
	}
}

func (s *ResolverSuite) TestInheritanceDisabled() {
	off := false
	s.cfg.InheritFromParent = &off

	parent := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeImage, BannerImage: &s.hero})
	leaf := s.addNode(models.ContentNode{ID: 2, ParentID: &parent.ID, BannerMode: models.ModeImage, BannerImage: &s.missing})

	r := s.resolver()

	_, ok, err := r.ResolveBanner(s.ctx, leaf)
	s.Require().NoError(err)
	s.Require().False(ok)

	all, err := r.ResolveAllBanners(s.ctx, leaf)
	s.Require().NoError(err)
	s.Require().Empty(all)
}

func (s *ResolverSuite) TestEffectiveImageSized() {
	node := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeImage, BannerImage: &s.hero})
	r := s.resolver()

	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
		url           string
	}{
		{name: "original", wantW: 1200, wantH: 400, url: "/assets/hero.jpg"},
		{name: "width only", width: 600, wantW: 600, wantH: 200, url: "/assets/_resampled/width-600x0/hero.jpg"},
		{name: "height only", height: 100, wantW: 300, wantH: 100, url: "/assets/_resampled/height-0x100/hero.jpg"},
		{name: "both", width: 300, height: 300, wantW: 300, wantH: 300, url: "/assets/_resampled/crop-300x300/hero.jpg"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			img, ok, err := r.EffectiveImageSized(s.ctx, node, tt.width, tt.height)
			s.Require().NoError(err)
			s.Require().True(ok)
			s.Require().Equal(tt.wantW, img.Width)
			s.Require().Equal(tt.wantH, img.Height)
			s.Require().Equal(tt.url, img.URL)
		})
	}

	img, ok, err := r.EffectiveImage(s.ctx, node)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal(s.hero.Filename, img.Filename)
}

func (s *ResolverSuite) TestCycleTerminates() {
	a := s.addNode(models.ContentNode{ID: 1, ParentID: ptr(2), BannerMode: models.ModeNone})
	s.addNode(models.ContentNode{ID: 2, ParentID: ptr(1), BannerMode: models.ModeNone})

	r := s.resolver()

	_, ok, err := r.ResolveBanner(s.ctx, a)
	s.Require().NoError(err)
	s.Require().False(ok)

	all, err := r.ResolveAllBanners(s.ctx, a)
	s.Require().NoError(err)
	s.Require().Empty(all)
}

func (s *ResolverSuite) TestDepthLimit() {
	s.cfg.MaxDepth = 3

	s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeImage, BannerImage: &s.hero})

	var leaf models.ContentNode
	for id := int64(2); id <= 6; id++ {
		leaf = s.addNode(models.ContentNode{ID: id, ParentID: ptr(id - 1), BannerMode: models.ModeNone})
	}

	_, ok, err := s.resolver().ResolveBanner(s.ctx, leaf)
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *ResolverSuite) TestGroupMembersNotFileChecked() {
	s.addGroup(30, models.Banner{ID: 5, Title: "Ghost", SortOrder: 1, Image: s.missing})
	node := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(30)})

	r := s.resolver()

	all, err := r.ResolveAllBanners(s.ctx, node)
	s.Require().NoError(err)
	s.Require().Equal([]string{"Ghost"}, titles(all))

	_, ok, err := r.ResolveBanner(s.ctx, node)
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *ResolverSuite) TestRenderMarkup() {
	s.abGroup()

	carousel := s.addNode(models.ContentNode{
		ID: 1, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(10), CarouselEnabled: true,
	})
	static := s.addNode(models.ContentNode{ID: 2, BannerMode: models.ModeBannerGroup, BannerGroupID: ptr(10)})
	empty := s.addNode(models.ContentNode{ID: 3, BannerMode: models.ModeNone})

	r := s.resolver(resolver.WithIntn(func(int) int { return 0 }))

	m, err := r.RenderMarkup(s.ctx, carousel, 400, 100, "")
	s.Require().NoError(err)
	s.Require().Nil(m.Banner)
	s.Require().NotNil(m.Carousel)
	s.Require().Equal("slides", m.Carousel.Widget)
	s.Require().Len(m.Carousel.Items, 2)
	s.Require().Equal("A", m.Carousel.Items[0].Title)
	s.Require().Equal("/assets/_resampled/crop-400x100/hero.jpg", m.Carousel.Items[0].Image.URL)
	s.Require().Equal("B", m.Carousel.Items[1].Title)

	m, err = r.RenderMarkup(s.ctx, static, 400, 100, models.TransformFit)
	s.Require().NoError(err)
	s.Require().Nil(m.Carousel)
	s.Require().NotNil(m.Banner)
	s.Require().Equal("/assets/_resampled/fit-400x100/alt.jpg", m.Banner.Image.URL)

	m, err = r.RenderMarkup(s.ctx, empty, 400, 100, "")
	s.Require().NoError(err)
	s.Require().Nil(m.Carousel)
	s.Require().Nil(m.Banner)
}

func (s *ResolverSuite) TestBannerCSS() {
	node := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeImage, BannerImage: &s.hero})
	empty := s.addNode(models.ContentNode{ID: 2, BannerMode: models.ModeNone})

	r := s.resolver()

	css, ok, err := r.BannerCSS(s.ctx, node, 0, 0)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("background-image: url(/assets/hero.jpg)", css)

	_, ok, err = r.BannerCSS(s.ctx, empty, 0, 0)
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *ResolverSuite) TestUnknownTransformFallsBackToCrop() {
	s.cfg.Transform = "stretch"
	node := s.addNode(models.ContentNode{ID: 1, BannerMode: models.ModeImage, BannerImage: &s.hero})

	img, ok, err := s.resolver().EffectiveImageSized(s.ctx, node, 100, 100)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("/assets/_resampled/crop-100x100/hero.jpg", img.URL)
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}
