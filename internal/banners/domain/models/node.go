package models

import "fmt"

type BannerMode string

const (
	ModeNone         BannerMode = "None"
	ModeImage        BannerMode = "Image"
	ModeSingleBanner BannerMode = "SingleBanner"
	ModeBannerGroup  BannerMode = "BannerGroup"
)

// DefaultBannerMode is assigned to nodes created without an explicit mode.
const DefaultBannerMode = ModeBannerGroup

const KindPage = "page"

func ParseBannerMode(s string) (BannerMode, error) {
	switch m := BannerMode(s); m {
	case ModeNone, ModeImage, ModeSingleBanner, ModeBannerGroup:
		return m, nil
	case "":
		return ModeNone, nil
	default:
		return "", fmt.Errorf("unknown banner mode %q", s)
	}
}

// ContentNode is a node of the externally managed content tree together with
// its banner selection.
type ContentNode struct {
	ID              int64      `json:"node_id"`   //nolint:tagliatelle
	ParentID        *int64     `json:"parent_id"` //nolint:tagliatelle
	Kind            string     `json:"kind"`
	Title           string     `json:"title"`
	BannerMode      BannerMode `json:"banner_mode"`                //nolint:tagliatelle
	CarouselEnabled bool       `json:"carousel_enabled"`           //nolint:tagliatelle
	BannerImage     *Image     `json:"banner_image,omitempty"`     //nolint:tagliatelle
	SingleBannerID  *int64     `json:"single_banner_id,omitempty"` //nolint:tagliatelle
	BannerGroupID   *int64     `json:"banner_group_id,omitempty"`  //nolint:tagliatelle
}

// Carousel reports the effective carousel flag: it only counts for group mode.
func (n ContentNode) Carousel() bool {
	return n.BannerMode == ModeBannerGroup && n.CarouselEnabled
}
