package disk

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // gif decoder for Probe
	_ "image/jpeg" // jpeg decoder for Probe
	_ "image/png"  // png decoder for Probe
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Leopold1975/page_banners/internal/banners/domain/models"
	"github.com/Leopold1975/page_banners/internal/pkg/config"
	_ "golang.org/x/image/bmp"  // bmp decoder for Probe
	_ "golang.org/x/image/tiff" // tiff decoder for Probe
	_ "golang.org/x/image/webp" // webp decoder for Probe
)

const resampledDir = "_resampled"

var ErrOutsideRoot = errors.New("image path escapes the image root")

// Store resolves image records against files under a root directory. Sized
// variants are described by URL only; producing the pixels is left to the
// asset server in front of BaseURL.
type Store struct {
	root    string
	baseURL string
}

func New(cfg config.Images) *Store {
	return &Store{
		root:    cfg.Root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// Exists reports whether img references a stored record.
func (s *Store) Exists(img models.Image) bool {
	return img.ID != 0 && img.Filename != ""
}

// OnDisk reports whether the file behind img is a regular file under root.
func (s *Store) OnDisk(_ context.Context, img models.Image) (bool, error) {
	if img.Filename == "" {
		return false, nil
	}

	p, err := s.path(img.Filename)
	if err != nil {
		return false, nil //nolint:nilerr
	}

	fi, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat error: %w", err)
	}

	return fi.Mode().IsRegular(), nil
}

// Variant describes img after transform t. An empty transform returns the
// original with its URL.
func (s *Store) Variant(_ context.Context, img models.Image, t models.Transform, width, height int) (models.Image, error) {
	if t == "" {
		img.URL = s.url(img.Filename)

		return img, nil
	}

	if !t.Valid() {
		return models.Image{}, fmt.Errorf("unknown transform %q", t)
	}

	w, h := Geometry(t, img.Width, img.Height, width, height)

	v := img
	v.Width = w
	v.Height = h
	v.URL = s.url(path.Join(resampledDir, string(t)+"-"+strconv.Itoa(width)+"x"+strconv.Itoa(height), img.Filename))

	return v, nil
}

// Probe reads the dimensions of a file under root.
func (s *Store) Probe(_ context.Context, filename string) (models.Image, error) {
	p, err := s.path(filename)
	if err != nil {
		return models.Image{}, err
	}

	f, err := os.Open(p)
	if err != nil {
		return models.Image{}, fmt.Errorf("open error: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return models.Image{}, fmt.Errorf("decode config error: %w", err)
	}

	return models.Image{
		Filename: filename,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

func (s *Store) path(filename string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(filename))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	return filepath.Join(s.root, clean), nil
}

func (s *Store) url(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	return s.baseURL + "/" + strings.Join(parts, "/")
}
