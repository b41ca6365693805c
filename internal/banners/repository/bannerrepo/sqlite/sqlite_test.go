package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	repo "github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo/sqlite"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/stretchr/testify/suite"
)

type SQLiteRepoSuite struct {
	suite.Suite
	ctx  context.Context
	repo sqlite.BannersSQLiteRepo
}

func (s *SQLiteRepoSuite) SetupTest() {
	s.ctx = context.Background()

	r, err := sqlite.New(s.ctx, config.SQLite{Path: filepath.Join(s.T().TempDir(), "banners.db")})
	s.Require().NoError(err)

	s.repo = r
}

func (s *SQLiteRepoSuite) TearDownTest() {
	s.Require().NoError(s.repo.Shutdown(s.ctx))
}

func (s *SQLiteRepoSuite) TestGroupBannersOrderedBySortOrder() {
	groupID, err := s.repo.CreateGroup(s.ctx, models.BannerGroup{Name: "home"})
	s.Require().NoError(err)

	imgID, err := s.repo.CreateImage(s.ctx, models.Image{Filename: "b.jpg", Width: 800, Height: 200})
	s.Require().NoError(err)

	_, err = s.repo.CreateBanner(s.ctx, models.Banner{GroupID: groupID, Title: "B", SortOrder: 2, Image: models.Image{ID: imgID}})
	s.Require().NoError(err)

	_, err = s.repo.CreateBanner(s.ctx, models.Banner{GroupID: groupID, Title: "A", SortOrder: 1})
	s.Require().NoError(err)

	banners, err := s.repo.GetGroupBanners(s.ctx, groupID)
	s.Require().NoError(err)
	s.Require().Len(banners, 2)

	s.Require().Equal("A", banners[0].Title)
	s.Require().True(banners[0].Image.IsZero())
	s.Require().Equal("B", banners[1].Title)
	s.Require().Equal(models.Image{ID: imgID, Filename: "b.jpg", Width: 800, Height: 200}, banners[1].Image)
}

func (s *SQLiteRepoSuite) TestNodeRoundTrip() {
	imgID, err := s.repo.CreateImage(s.ctx, models.Image{Filename: "root.jpg", Width: 10, Height: 10})
	s.Require().NoError(err)

	rootID, err := s.repo.CreateNode(s.ctx, models.ContentNode{
		Kind:        models.KindPage,
		Title:       "Home",
		BannerMode:  models.ModeImage,
		BannerImage: &models.Image{ID: imgID},
	})
	s.Require().NoError(err)

	childID, err := s.repo.CreateNode(s.ctx, models.ContentNode{
		ParentID:   &rootID,
		Kind:       models.KindPage,
		Title:      "About",
		BannerMode: models.DefaultBannerMode,
	})
	s.Require().NoError(err)

	root, err := s.repo.GetNode(s.ctx, rootID)
	s.Require().NoError(err)
	s.Require().Nil(root.ParentID)
	s.Require().NotNil(root.BannerImage)
	s.Require().Equal("root.jpg", root.BannerImage.Filename)

	child, err := s.repo.GetNode(s.ctx, childID)
	s.Require().NoError(err)
	s.Require().Equal(rootID, *child.ParentID)
	s.Require().Equal(models.ModeBannerGroup, child.BannerMode)
	s.Require().Nil(child.BannerImage)

	groupID, err := s.repo.CreateGroup(s.ctx, models.BannerGroup{Name: "about"})
	s.Require().NoError(err)

	child.BannerGroupID = &groupID
	child.CarouselEnabled = true
	s.Require().NoError(s.repo.UpdateNodeBanner(s.ctx, child))

	child, err = s.repo.GetNode(s.ctx, childID)
	s.Require().NoError(err)
	s.Require().True(child.CarouselEnabled)
	s.Require().Equal(groupID, *child.BannerGroupID)
}

func (s *SQLiteRepoSuite) TestNotFoundAndDuplicates() {
	_, err := s.repo.GetNode(s.ctx, 404)
	s.Require().ErrorIs(err, repo.ErrNotFound)

	_, err = s.repo.GetBanner(s.ctx, 404)
	s.Require().ErrorIs(err, repo.ErrNotFound)

	err = s.repo.UpdateNodeBanner(s.ctx, models.ContentNode{ID: 404, BannerMode: models.ModeNone})
	s.Require().ErrorIs(err, repo.ErrNotFound)

	_, err = s.repo.CreateGroup(s.ctx, models.BannerGroup{Name: "dup"})
	s.Require().NoError(err)

	_, err = s.repo.CreateGroup(s.ctx, models.BannerGroup{Name: "dup"})
	s.Require().ErrorIs(err, repo.ErrAlreadyExists)

	_, err = s.repo.CreateBanner(s.ctx, models.Banner{GroupID: 404, Title: "orphan"})
	s.Require().ErrorIs(err, repo.ErrNotFound)

	g, err := s.repo.GetGroupByName(s.ctx, "dup")
	s.Require().NoError(err)
	s.Require().Equal("dup", g.Name)

	groups, err := s.repo.ListGroups(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
}

func TestSQLiteRepoSuite(t *testing.T) {
	suite.Run(t, new(SQLiteRepoSuite))
}
