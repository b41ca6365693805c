package server

import "github.com/Leopold1975/page_banners/internal/banners/domain/models"

type CreatedResponse struct {
	ID int64 `json:"id"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type NodeBannersResponse struct {
	Banners     []models.Banner `json:"banners"`
	HasCarousel bool            `json:"has_carousel"` //nolint:tagliatelle
}

type BannerCSSResponse struct {
	CSS string `json:"css"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type RegisterImageRequest struct {
	Filename string `json:"filename"`
}
