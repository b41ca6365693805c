package bannerservice

import (
	"errors"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNotAllowed = errors.New("not allowed")
	ErrInvalid    = errors.New("invalid request")
)

type CreateNodeRequest struct {
	ParentID *int64 `json:"parent_id"` //nolint:tagliatelle
	Kind     string `json:"kind"`
	Title    string `json:"title"`
}

type CreateBannerRequest struct {
	GroupID   int64  `json:"group_id"` //nolint:tagliatelle
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order"` //nolint:tagliatelle
	ImageID   *int64 `json:"image_id"`   //nolint:tagliatelle
}

// SelectionRequest changes a node's banner choice. Nil references keep the
// stored ones, so switching modes back and forth does not lose them.
type SelectionRequest struct {
	Mode            string `json:"banner_mode"`      //nolint:tagliatelle
	CarouselEnabled bool   `json:"carousel_enabled"` //nolint:tagliatelle
	ImageID         *int64 `json:"image_id"`         //nolint:tagliatelle
	BannerID        *int64 `json:"banner_id"`        //nolint:tagliatelle
	GroupID         *int64 `json:"group_id"`         //nolint:tagliatelle
}

// SelectionOptions is what an editor may pick from for one node.
type SelectionOptions struct {
	TabName string               `json:"tab_name"` //nolint:tagliatelle
	Modes   []models.BannerMode  `json:"modes"`
	Banners []models.Banner      `json:"banners"`
	Groups  []models.BannerGroup `json:"groups,omitempty"`
	Current models.ContentNode   `json:"current"`
}
