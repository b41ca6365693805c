package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/page_banners/internal/banners/api/oapi"
	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/banners/services/authservice"
	"github.com/Leopold1975/page_banners/internal/banners/services/bannerservice"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	serv          *http.Server
	bannerService BannerService
	authService   AuthService
	resolver      Resolver
	lg            logger.Logger
}

type BannerService interface {
	GetNode(context.Context, int64) (models.ContentNode, error)
	CreateNode(context.Context, bannerservice.CreateNodeRequest) (int64, error)
	CreateGroup(context.Context, string) (int64, error)
	CreateBanner(context.Context, bannerservice.CreateBannerRequest) (int64, error)
	RegisterImage(context.Context, string) (models.Image, error)
	UpdateSelection(context.Context, int64, bannerservice.SelectionRequest) error
	SelectionOptions(context.Context, int64) (bannerservice.SelectionOptions, error)
}

type AuthService interface {
	CreateUser(context.Context, authservice.CreateUserRequest) (string, error)
	Auth(string) (bool, error)
	Login(context.Context, authservice.LoginRequest) (string, error)
}

type Resolver interface {
	ResolveBanner(context.Context, models.ContentNode) (models.Banner, bool, error)
	ResolveAllBanners(context.Context, models.ContentNode) ([]models.Banner, error)
	HasCarousel(context.Context, models.ContentNode) (bool, error)
	EffectiveImageSized(ctx context.Context, node models.ContentNode, width, height int) (models.Image, bool, error)
	BannerCSS(ctx context.Context, node models.ContentNode, width, height int) (string, bool, error)
	RenderMarkup(ctx context.Context, node models.ContentNode, width, height int,
		t models.Transform) (models.Markup, error)
}

func New(cfg config.Server, bs BannerService, as AuthService, res Resolver, lg logger.Logger) *Server {
	s := &Server{
		bannerService: bs,
		authService:   as,
		resolver:      res,
		lg:            lg,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())

	h := oapi.HandlerWithOptions(s, oapi.ChiServerOptions{ //nolint:exhaustruct
		BaseURL:     "/v1",
		BaseRouter:  router,
		Middlewares: []oapi.MiddlewareFunc{loggingMiddleware(lg)},
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			handleError(w, err, http.StatusBadRequest)
		},
	})

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.serv.Handler
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctxS, cancel := context.WithTimeout(ctx, s.serv.IdleTimeout)
	defer cancel()

	if err := s.serv.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

// (POST /auth).
func (s *Server) PostAuth(w http.ResponseWriter, r *http.Request) {
	var req authservice.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	if req.Username == "" || req.Password == "" {
		handleError(w, errors.New("not enough parameters to auth user"), http.StatusBadRequest)

		return
	}

	token, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.fail(w, fmt.Errorf("login error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// (POST /user).
func (s *Server) PostUser(w http.ResponseWriter, r *http.Request, params oapi.TokenParams) {
	var req authservice.CreateUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	if params.Token != nil {
		req.Token = *params.Token
	}

	token, err := s.authService.CreateUser(r.Context(), req)
	if err != nil {
		s.fail(w, fmt.Errorf("create user error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, TokenResponse{Token: token})
}

// (POST /nodes).
func (s *Server) PostNode(w http.ResponseWriter, r *http.Request, params oapi.TokenParams) {
	if !s.admin(w, params) {
		return
	}

	var req bannerservice.CreateNodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	id, err := s.bannerService.CreateNode(r.Context(), req)
	if err != nil {
		s.fail(w, fmt.Errorf("create node error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// (GET /nodes/{id}/banner).
func (s *Server) GetNodeBanner(w http.ResponseWriter, r *http.Request, id int64) {
	node, ok := s.node(w, r, id)
	if !ok {
		return
	}

	b, ok, err := s.resolver.ResolveBanner(r.Context(), node)
	if err != nil {
		s.fail(w, fmt.Errorf("resolve banner error: %w", err))

		return
	}

	if !ok {
		handleError(w, errNoBanner, http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, b)
}

// (PUT /nodes/{id}/banner).
func (s *Server) PutNodeBanner(w http.ResponseWriter, r *http.Request, id int64, params oapi.TokenParams) {
	if !s.admin(w, params) {
		return
	}

	var req bannerservice.SelectionRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	if err := s.bannerService.UpdateSelection(r.Context(), id, req); err != nil {
		s.fail(w, fmt.Errorf("update selection error: %w", err))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// (GET /nodes/{id}/banners).
func (s *Server) GetNodeBanners(w http.ResponseWriter, r *http.Request, id int64) {
	node, ok := s.node(w, r, id)
	if !ok {
		return
	}

	banners, err := s.resolver.ResolveAllBanners(r.Context(), node)
	if err != nil {
		s.fail(w, fmt.Errorf("resolve all banners error: %w", err))

		return
	}

	carousel, err := s.resolver.HasCarousel(r.Context(), node)
	if err != nil {
		s.fail(w, fmt.Errorf("has carousel error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, NodeBannersResponse{Banners: banners, HasCarousel: carousel})
}

// (GET /nodes/{id}/banner/image).
func (s *Server) GetNodeBannerImage(w http.ResponseWriter, r *http.Request, id int64, params oapi.ImageParams) {
	node, ok := s.node(w, r, id)
	if !ok {
		return
	}

	width, height := size(params)

	img, ok, err := s.resolver.EffectiveImageSized(r.Context(), node, width, height)
	if err != nil {
		s.fail(w, fmt.Errorf("effective image error: %w", err))

		return
	}

	if !ok {
		handleError(w, errNoBanner, http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, img)
}

// (GET /nodes/{id}/banner/css).
func (s *Server) GetNodeBannerCSS(w http.ResponseWriter, r *http.Request, id int64, params oapi.ImageParams) {
	node, ok := s.node(w, r, id)
	if !ok {
		return
	}

	width, height := size(params)

	css, ok, err := s.resolver.BannerCSS(r.Context(), node, width, height)
	if err != nil {
		s.fail(w, fmt.Errorf("banner css error: %w", err))

		return
	}

	if !ok {
		handleError(w, errNoBanner, http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, BannerCSSResponse{CSS: css})
}

// (GET /nodes/{id}/banner/markup).
func (s *Server) GetNodeBannerMarkup(w http.ResponseWriter, r *http.Request, id int64, params oapi.ImageParams) {
	var t models.Transform

	if params.Transform != nil {
		t = models.Transform(*params.Transform)

		if !t.Valid() {
			handleError(w, fmt.Errorf("unknown transform %q", t), http.StatusBadRequest)

			return
		}
	}

	node, ok := s.node(w, r, id)
	if !ok {
		return
	}

	width, height := size(params)

	m, err := s.resolver.RenderMarkup(r.Context(), node, width, height, t)
	if err != nil {
		s.fail(w, fmt.Errorf("render markup error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, m)
}

// (GET /nodes/{id}/banner/options).
func (s *Server) GetNodeBannerOptions(w http.ResponseWriter, r *http.Request, id int64, params oapi.TokenParams) {
	if !s.admin(w, params) {
		return
	}

	opts, err := s.bannerService.SelectionOptions(r.Context(), id)
	if err != nil {
		s.fail(w, fmt.Errorf("selection options error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, opts)
}

// (POST /groups).
func (s *Server) PostGroup(w http.ResponseWriter, r *http.Request, params oapi.TokenParams) {
	if !s.admin(w, params) {
		return
	}

	var req CreateGroupRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	id, err := s.bannerService.CreateGroup(r.Context(), req.Name)
	if err != nil {
		s.fail(w, fmt.Errorf("create group error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// (POST /banners).
func (s *Server) PostBanner(w http.ResponseWriter, r *http.Request, params oapi.TokenParams) {
	if !s.admin(w, params) {
		return
	}

	var req bannerservice.CreateBannerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	id, err := s.bannerService.CreateBanner(r.Context(), req)
	if err != nil {
		s.fail(w, fmt.Errorf("create banner error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// (POST /images).
func (s *Server) PostImage(w http.ResponseWriter, r *http.Request, params oapi.TokenParams) {
	if !s.admin(w, params) {
		return
	}

	var req RegisterImageRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, fmt.Errorf("decode error: %w", err), http.StatusBadRequest)

		return
	}

	img, err := s.bannerService.RegisterImage(r.Context(), req.Filename)
	if err != nil {
		s.fail(w, fmt.Errorf("register image error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, img)
}

func (s *Server) admin(w http.ResponseWriter, params oapi.TokenParams) bool {
	if params.Token == nil {
		handleError(w, errTokenRequired, http.StatusUnauthorized)

		return false
	}

	isAdmin, err := s.authService.Auth(*params.Token)
	if err != nil {
		handleError(w, fmt.Errorf("authorization error: %w", err), http.StatusUnauthorized)

		return false
	}

	if !isAdmin {
		handleError(w, errNotAdmin, http.StatusForbidden)

		return false
	}

	return true
}

func (s *Server) node(w http.ResponseWriter, r *http.Request, id int64) (models.ContentNode, bool) {
	n, err := s.bannerService.GetNode(r.Context(), id)
	if err != nil {
		s.fail(w, fmt.Errorf("get node error: %w", err))

		return models.ContentNode{}, false
	}

	return n, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		s.lg.Errorf("%s", err.Error())
	}

	handleError(w, err, code)
}

func size(params oapi.ImageParams) (int, int) {
	var width, height int

	if params.Width != nil && *params.Width > 0 {
		width = *params.Width
	}

	if params.Height != nil && *params.Height > 0 {
		height = *params.Height
	}

	return width, height
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	json.NewEncoder(w).Encode(v) //nolint:errcheck,errchkjson
}
