package models

// Image is a reference to a stored image asset. A zero Image references nothing.
type Image struct {
	ID       int64  `json:"image_id"` //nolint:tagliatelle
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	URL      string `json:"url,omitempty"`
}

func (i Image) IsZero() bool {
	return i.ID == 0 && i.Filename == ""
}

type Transform string

const (
	TransformWidth  Transform = "width"
	TransformHeight Transform = "height"
	TransformFit    Transform = "fit"
	TransformCrop   Transform = "crop"
)

func (t Transform) Valid() bool {
	switch t {
	case TransformWidth, TransformHeight, TransformFit, TransformCrop:
		return true
	}

	return false
}
