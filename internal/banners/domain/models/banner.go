package models

type Banner struct {
	ID        int64  `json:"banner_id"` //nolint:tagliatelle
	GroupID   int64  `json:"group_id"`  //nolint:tagliatelle
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order"` //nolint:tagliatelle
	Image     Image  `json:"image"`
}

type BannerGroup struct {
	ID   int64  `json:"group_id"` //nolint:tagliatelle
	Name string `json:"name"`
}
