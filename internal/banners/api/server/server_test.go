package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Leopold1975/page_banners/internal/banners/api/server"
	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannercache"
	"github.com/Leopold1975/page_banners/internal/banners/repository/bannerrepo/sqlite"
	"github.com/Leopold1975/page_banners/internal/banners/repository/imagestore/disk"
	usersqlite "github.com/Leopold1975/page_banners/internal/banners/repository/userrepo/sqlite"
	"github.com/Leopold1975/page_banners/internal/banners/services/authservice"
	"github.com/Leopold1975/page_banners/internal/banners/services/bannerservice"
	"github.com/Leopold1975/page_banners/internal/banners/services/resolver"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/internal/pkg/jwtauth"
	"github.com/Leopold1975/page_banners/pkg/logger"
	"github.com/stretchr/testify/suite"
)

const secret = "test-secret"

type ServerSuite struct {
	suite.Suite
	ctx        context.Context
	repo       sqlite.BannersSQLiteRepo
	handler    http.Handler
	adminToken string
	userToken  string
}

func (s *ServerSuite) SetupTest() {
	s.ctx = context.Background()
	dir := s.T().TempDir()

	assets := filepath.Join(dir, "assets")
	s.Require().NoError(os.Mkdir(assets, 0o755))
	s.writePNG(assets, "hero.png", 1200, 400)
	s.writePNG(assets, "alt.png", 800, 200)

	r, err := sqlite.New(s.ctx, config.SQLite{Path: filepath.Join(dir, "banners.db")})
	s.Require().NoError(err)
	s.repo = r

	lg := logger.Nop()
	store := disk.New(config.Images{Root: assets, BaseURL: "/assets"})
	cfg := config.Banners{CarouselWidget: "slides", Transform: "crop", MaxDepth: 64}

	bs := bannerservice.New(r, bannercache.Nop{}, store, cfg, lg)
	s.Require().NoError(bs.LoadRestriction(s.ctx))

	res := resolver.New(bs, store, cfg, lg, resolver.WithIntn(func(int) int { return 0 }))
	as := authservice.New(usersqlite.New(r.DB()), config.Auth{TTL: time.Hour, Secret: secret})

	s.handler = server.New(config.Server{IdleTimeout: time.Second}, bs, as, res, lg).Handler()

	s.adminToken, err = jwtauth.GetToken(models.User{Username: "root", Role: models.RoleAdmin}, time.Hour, secret)
	s.Require().NoError(err)
	s.userToken, err = jwtauth.GetToken(models.User{Username: "ann", Role: models.RoleUser}, time.Hour, secret)
	s.Require().NoError(err)
}

func (s *ServerSuite) TearDownTest() {
	s.Require().NoError(s.repo.Shutdown(s.ctx))
}

func (s *ServerSuite) writePNG(dir, name string, w, h int) {
	f, err := os.Create(filepath.Join(dir, name))
	s.Require().NoError(err)
	defer f.Close()

	s.Require().NoError(png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func (s *ServerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer

	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("token", token)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	return rr
}

func (s *ServerSuite) create(path string, body any) int64 {
	rr := s.do(http.MethodPost, path, s.adminToken, body)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var resp server.CreatedResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))

	return resp.ID
}

func (s *ServerSuite) registerImage(filename string) models.Image {
	rr := s.do(http.MethodPost, "/v1/images", s.adminToken, server.RegisterImageRequest{Filename: filename})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var img models.Image
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&img))

	return img
}

func nodePath(id int64, rest string) string {
	return "/v1/nodes/" + strconv.FormatInt(id, 10) + rest
}

func (s *ServerSuite) TestAdminRequired() {
	body := server.RegisterImageRequest{Filename: "hero.png"}

	rr := s.do(http.MethodPost, "/v1/images", "", body)
	s.Require().Equal(http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/v1/images", "garbage", body)
	s.Require().Equal(http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/v1/images", s.userToken, body)
	s.Require().Equal(http.StatusForbidden, rr.Code)

	img := s.registerImage("hero.png")
	s.Require().NotZero(img.ID)
	s.Require().Equal(1200, img.Width)
	s.Require().Equal(400, img.Height)

	rr = s.do(http.MethodPost, "/v1/images", s.adminToken, server.RegisterImageRequest{Filename: "nope.png"})
	s.Require().Equal(http.StatusBadRequest, rr.Code)
}

func (s *ServerSuite) TestUserAndLogin() {
	rr := s.do(http.MethodPost, "/v1/user", "", authservice.CreateUserRequest{Username: "ann", Password: "pw"})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, "/v1/user", "", authservice.CreateUserRequest{
		Username: "eve", Password: "pw", Role: models.RoleAdmin,
	})
	s.Require().Equal(http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/v1/user", s.userToken, authservice.CreateUserRequest{
		Username: "eve", Password: "pw", Role: models.RoleAdmin,
	})
	s.Require().Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodPost, "/v1/auth", "", authservice.LoginRequest{Username: "ann", Password: "pw"})
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp server.TokenResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))
	s.Require().NotEmpty(resp.Token)

	rr = s.do(http.MethodPost, "/v1/auth", "", authservice.LoginRequest{Username: "ann", Password: "bad"})
	s.Require().Equal(http.StatusUnauthorized, rr.Code)
}

func (s *ServerSuite) TestGroupCarouselAndInheritance() {
	hero := s.registerImage("hero.png")
	alt := s.registerImage("alt.png")

	groupID := s.create("/v1/groups", server.CreateGroupRequest{Name: "home"})
	s.create("/v1/banners", bannerservice.CreateBannerRequest{GroupID: groupID, Title: "B", SortOrder: 2, ImageID: &alt.ID})
	s.create("/v1/banners", bannerservice.CreateBannerRequest{GroupID: groupID, Title: "A", SortOrder: 1, ImageID: &hero.ID})

	rootID := s.create("/v1/nodes", bannerservice.CreateNodeRequest{Title: "Home"})
	childID := s.create("/v1/nodes", bannerservice.CreateNodeRequest{ParentID: &rootID, Title: "About"})

	rr := s.do(http.MethodPut, nodePath(rootID, "/banner"), s.adminToken, bannerservice.SelectionRequest{
		Mode:            string(models.ModeBannerGroup),
		CarouselEnabled: true,
		GroupID:         &groupID,
	})
	s.Require().Equal(http.StatusNoContent, rr.Code, rr.Body.String())

	rr = s.do(http.MethodGet, nodePath(rootID, "/banners"), "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var all server.NodeBannersResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&all))
	s.Require().True(all.HasCarousel)
	s.Require().Len(all.Banners, 2)
	s.Require().Equal("A", all.Banners[0].Title)
	s.Require().Equal("/assets/hero.png", all.Banners[0].Image.URL)
	s.Require().Equal("B", all.Banners[1].Title)

	rr = s.do(http.MethodGet, nodePath(rootID, "/banner/markup?width=300&height=100"), "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var markup models.Markup
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&markup))
	s.Require().Nil(markup.Banner)
	s.Require().NotNil(markup.Carousel)
	s.Require().Equal("slides", markup.Carousel.Widget)
	s.Require().Len(markup.Carousel.Items, 2)
	s.Require().Equal("/assets/_resampled/crop-300x100/hero.png", markup.Carousel.Items[0].Image.URL)

	// The child has no group of its own and falls back to the root.
	rr = s.do(http.MethodGet, nodePath(childID, "/banner"), "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var b models.Banner
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&b))
	s.Require().Equal("A", b.Title)

	rr = s.do(http.MethodGet, nodePath(childID, "/banner/image?width=600"), "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var img models.Image
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&img))
	s.Require().Equal(600, img.Width)
	s.Require().Equal(200, img.Height)
	s.Require().Equal("/assets/_resampled/width-600x0/hero.png", img.URL)

	rr = s.do(http.MethodGet, nodePath(childID, "/banner/css"), "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var css server.BannerCSSResponse
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&css))
	s.Require().Equal("background-image: url(/assets/hero.png)", css.CSS)
}

func (s *ServerSuite) TestNoBanner() {
	nodeID := s.create("/v1/nodes", bannerservice.CreateNodeRequest{Title: "Empty"})

	rr := s.do(http.MethodPut, nodePath(nodeID, "/banner"), s.adminToken, bannerservice.SelectionRequest{
		Mode: string(models.ModeNone),
	})
	s.Require().Equal(http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodGet, nodePath(nodeID, "/banner"), "", nil)
	s.Require().Equal(http.StatusNotFound, rr.Code)

	rr = s.do(http.MethodGet, nodePath(nodeID, "/banner/markup"), "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Require().JSONEq(`{}`, rr.Body.String())

	rr = s.do(http.MethodGet, nodePath(nodeID, "/banner/markup?transform=stretch"), "", nil)
	s.Require().Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodGet, nodePath(nodeID+100, "/banner"), "", nil)
	s.Require().Equal(http.StatusNotFound, rr.Code)

	rr = s.do(http.MethodGet, "/v1/nodes/abc/banner", "", nil)
	s.Require().Equal(http.StatusBadRequest, rr.Code)
}

func (s *ServerSuite) TestSelectionOptions() {
	nodeID := s.create("/v1/nodes", bannerservice.CreateNodeRequest{Title: "Home"})

	rr := s.do(http.MethodGet, nodePath(nodeID, "/banner/options"), s.userToken, nil)
	s.Require().Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodGet, nodePath(nodeID, "/banner/options"), s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var opts bannerservice.SelectionOptions
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(&opts))
	s.Require().Equal("Root.Content.Images", opts.TabName)
	s.Require().Equal(models.DefaultBannerMode, opts.Current.BannerMode)

	rr = s.do(http.MethodPut, nodePath(nodeID, "/banner"), s.adminToken, bannerservice.SelectionRequest{Mode: "Sideways"})
	s.Require().Equal(http.StatusBadRequest, rr.Code)
}

func (s *ServerSuite) TestMetrics() {
	s.do(http.MethodGet, "/v1/nodes/1/banner", "", nil)

	rr := s.do(http.MethodGet, "/metrics", "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Require().Contains(rr.Body.String(), "banners_http_requests_total")
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}
