package bannerrepo

import (
	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Masterminds/squirrel"
)

// Query builders shared by the postgres and sqlite repositories. Each backend
// picks its placeholder format and runs the statements with its own driver.

type Scanner interface {
	Scan(dest ...any) error
}

func SelectNode(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return sb.Select(
		"n.id", "n.parent_id", "n.kind", "n.title", "n.banner_mode", "n.carousel",
		"n.single_banner_id", "n.group_id",
		"i.id", "i.filename", "i.width", "i.height",
	).
		From("nodes n").
		LeftJoin("images i ON i.id = n.image_id")
}

func ScanNode(row Scanner) (models.ContentNode, error) {
	var (
		n    models.ContentNode
		mode string
		img  nullImage
	)

	err := row.Scan(&n.ID, &n.ParentID, &n.Kind, &n.Title, &mode, &n.CarouselEnabled,
		&n.SingleBannerID, &n.BannerGroupID,
		&img.id, &img.filename, &img.width, &img.height)
	if err != nil {
		return models.ContentNode{}, err //nolint:wrapcheck
	}

	n.BannerMode = models.BannerMode(mode)
	n.BannerImage = img.ptr()

	return n, nil
}

func InsertNode(sb squirrel.StatementBuilderType, n models.ContentNode) squirrel.InsertBuilder {
	return sb.Insert("nodes").
		Columns("parent_id", "kind", "title", "banner_mode", "carousel",
			"image_id", "single_banner_id", "group_id").
		Values(nullID(n.ParentID), n.Kind, n.Title, string(n.BannerMode), n.CarouselEnabled,
			nullImageID(n.BannerImage), nullID(n.SingleBannerID), nullID(n.BannerGroupID)).
		Suffix("RETURNING id")
}

func UpdateNodeBanner(sb squirrel.StatementBuilderType, n models.ContentNode) squirrel.UpdateBuilder {
	return sb.Update("nodes").
		Set("banner_mode", string(n.BannerMode)).
		Set("carousel", n.CarouselEnabled).
		Set("image_id", nullImageID(n.BannerImage)).
		Set("single_banner_id", nullID(n.SingleBannerID)).
		Set("group_id", nullID(n.BannerGroupID)).
		Where(squirrel.Eq{"id": n.ID})
}

func SelectBanner(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return sb.Select("b.id", "b.group_id", "b.title", "b.sort_order",
		"i.id", "i.filename", "i.width", "i.height").
		From("banners b").
		LeftJoin("images i ON i.id = b.image_id")
}

func ListBanners(sb squirrel.StatementBuilderType, req ListBannersRequest) squirrel.SelectBuilder {
	q := SelectBanner(sb)

	if req.GroupID != 0 {
		q = q.Where(squirrel.Eq{"b.group_id": req.GroupID})
	}

	q = q.OrderBy("b.group_id ASC", "b.sort_order ASC", "b.id ASC")

	if req.Offset != 0 {
		q = q.Offset(uint64(req.Offset))
	}

	if req.Limit != 0 {
		q = q.Limit(uint64(req.Limit))
	}

	return q
}

func ScanBanner(row Scanner) (models.Banner, error) {
	var (
		b   models.Banner
		img nullImage
	)

	err := row.Scan(&b.ID, &b.GroupID, &b.Title, &b.SortOrder,
		&img.id, &img.filename, &img.width, &img.height)
	if err != nil {
		return models.Banner{}, err //nolint:wrapcheck
	}

	if p := img.ptr(); p != nil {
		b.Image = *p
	}

	return b, nil
}

func InsertBanner(sb squirrel.StatementBuilderType, b models.Banner) squirrel.InsertBuilder {
	var imageID any
	if b.Image.ID != 0 {
		imageID = b.Image.ID
	}

	return sb.Insert("banners").
		Columns("group_id", "title", "sort_order", "image_id").
		Values(b.GroupID, b.Title, b.SortOrder, imageID).
		Suffix("RETURNING id")
}

func SelectGroup(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return sb.Select("id", "name").From("banner_groups")
}

func ScanGroup(row Scanner) (models.BannerGroup, error) {
	var g models.BannerGroup

	if err := row.Scan(&g.ID, &g.Name); err != nil {
		return models.BannerGroup{}, err //nolint:wrapcheck
	}

	return g, nil
}

func InsertGroup(sb squirrel.StatementBuilderType, g models.BannerGroup) squirrel.InsertBuilder {
	return sb.Insert("banner_groups").
		Columns("name").
		Values(g.Name).
		Suffix("RETURNING id")
}

func SelectImage(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return sb.Select("id", "filename", "width", "height").From("images")
}

func ScanImage(row Scanner) (models.Image, error) {
	var img models.Image

	if err := row.Scan(&img.ID, &img.Filename, &img.Width, &img.Height); err != nil {
		return models.Image{}, err //nolint:wrapcheck
	}

	return img, nil
}

func InsertImage(sb squirrel.StatementBuilderType, img models.Image) squirrel.InsertBuilder {
	return sb.Insert("images").
		Columns("filename", "width", "height").
		Values(img.Filename, img.Width, img.Height).
		Suffix("RETURNING id")
}

// nullImage receives the columns of a LEFT JOINed images row.
type nullImage struct {
	id       *int64
	filename *string
	width    *int64
	height   *int64
}

func (ni nullImage) ptr() *models.Image {
	if ni.id == nil {
		return nil
	}

	img := models.Image{ID: *ni.id}

	if ni.filename != nil {
		img.Filename = *ni.filename
	}

	if ni.width != nil {
		img.Width = int(*ni.width)
	}

	if ni.height != nil {
		img.Height = int(*ni.height)
	}

	return &img
}

func nullID(id *int64) any {
	if id == nil || *id == 0 {
		return nil
	}

	return *id
}

func nullImageID(img *models.Image) any {
	if img == nil || img.ID == 0 {
		return nil
	}

	return img.ID
}
