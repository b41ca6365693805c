package models

type CarouselItem struct {
	Image Image  `json:"image"`
	Title string `json:"title"`
}

type Carousel struct {
	Widget string         `json:"widget"`
	Items  []CarouselItem `json:"items"`
}

// Markup is what a rendering layer needs to draw a node's banner: either a
// carousel or a single banner, never both. Both nil means nothing to render.
type Markup struct {
	Carousel *Carousel `json:"carousel,omitempty"`
	Banner   *Banner   `json:"banner,omitempty"`
}
