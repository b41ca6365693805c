package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Leopold1975/page_banners/internal/banners/services/authservice"
	"github.com/Leopold1975/page_banners/internal/banners/services/bannerservice"
	"github.com/Leopold1975/page_banners/internal/pkg/jwtauth"
)

var (
	errTokenRequired = errors.New("admin token required")
	errNotAdmin      = errors.New("admin role required")
	errNoBanner      = errors.New("node has no banner")
)

type Error struct {
	Err string `json:"error"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		return []byte(`{"error": "marshal error"}`)
	}

	return b
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, bannerservice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bannerservice.ErrInvalid), errors.Is(err, authservice.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, bannerservice.ErrNotAllowed), errors.Is(err, authservice.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, authservice.ErrInvalidCredentials), errors.Is(err, jwtauth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	w.Write(Error{err.Error()}.ToJSON()) //nolint:errcheck
}
