package bannerrepo

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type ListBannersRequest struct {
	// GroupID limits the listing to one group; zero lists every banner.
	GroupID int64
	Offset  int
	Limit   int
}
