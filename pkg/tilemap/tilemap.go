package tilemap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-asset-loader/pkg/loader"
	"golang.org/x/sync/errgroup"
)

// DefaultResourcesDir prefixes tileset image names when resolving them.
const DefaultResourcesDir = "./resources/"

// ErrNoTilesets is returned for map documents that declare no tileset.
var ErrNoTilesets = errors.New("map declares no tilesets")

type options struct {
	resourcesDir string
}

// Option customizes Load and Build.
type Option func(*options)

// WithResourcesDir overrides the prefix applied to tileset image names.
func WithResourcesDir(dir string) Option {
	return func(o *options) { o.resourcesDir = dir }
}

// document mirrors the subset of the Tiled JSON map format we consume.
type document struct {
	Width      uint32       `json:"width"`
	Height     uint32       `json:"height"`
	TileWidth  uint32       `json:"tilewidth"`
	TileHeight uint32       `json:"tileheight"`
	Layers     []layerDoc   `json:"layers"`
	Tilesets   []tilesetDoc `json:"tilesets"`
}

type layerDoc struct {
	ID      uint32      `json:"id"`
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Visible *bool       `json:"visible"`
	Data    []int64     `json:"data"`
	Objects []objectDoc `json:"objects"`
}

type objectDoc struct {
	ID     uint32  `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type tilesetDoc struct {
	Name        string `json:"name"`
	FirstGID    uint32 `json:"firstgid"`
	Image       string `json:"image"`
	Columns     uint32 `json:"columns"`
	TileCount   uint32 `json:"tilecount"`
	TileWidth   uint32 `json:"tilewidth"`
	TileHeight  uint32 `json:"tileheight"`
	ImageWidth  uint32 `json:"imagewidth"`
	ImageHeight uint32 `json:"imageheight"`
}

// Load fetches the map document at path, then every tileset image, and builds the Map.
// Loader errors are wrapped, so loader.IsNetworkError and loader.IsParseError still apply.
func Load(ctx context.Context, l *loader.Loader, path string, opts ...Option) (*Map, error) {
	if l == nil {
		l = loader.Default()
	}

	var doc document
	if err := l.DecodeJSON(ctx, path, &doc); err != nil {
		return nil, fmt.Errorf("load map document: %w", err)
	}
	return build(ctx, l, path, doc, opts)
}

// Build decodes a map document already in hand (raw) and loads its tileset images.
// Decode failures are reported as *loader.ParseError.
func Build(ctx context.Context, l *loader.Loader, path string, raw []byte, opts ...Option) (*Map, error) {
	if l == nil {
		l = loader.Default()
	}

	var doc document
	if err := loader.UnmarshalJSON(path, raw, &doc); err != nil {
		return nil, fmt.Errorf("load map document: %w", err)
	}
	return build(ctx, l, path, doc, opts)
}

func build(ctx context.Context, l *loader.Loader, path string, doc document, opts []Option) (*Map, error) {
	o := options{resourcesDir: DefaultResourcesDir}
	for _, opt := range opts {
		opt(&o)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(doc.Tilesets) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTilesets)
	}

	m := &Map{
		Path:     path,
		Size:     Dimensions{Width: doc.Width, Height: doc.Height},
		TileSize: Dimensions{Width: doc.TileWidth, Height: doc.TileHeight},
		Layers:   buildLayers(doc.Layers),
		Tilesets: make([]Tileset, len(doc.Tilesets)),
	}

	for i, ts := range doc.Tilesets {
		if strings.TrimSpace(ts.Image) == "" {
			return nil, fmt.Errorf("tileset %d (%q) has no image", i, ts.Name)
		}
		m.Tilesets[i] = Tileset{
			Name:      ts.Name,
			FirstGID:  firstGID(ts.FirstGID),
			ImagePath: ImagePath(o.resourcesDir, ts.Image),
			Columns:   ts.Columns,
			TileCount: ts.TileCount,
			TileSize:  Dimensions{Width: ts.TileWidth, Height: ts.TileHeight},
			ImageSize: Dimensions{Width: ts.ImageWidth, Height: ts.ImageHeight},
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range m.Tilesets {
		slot := &m.Tilesets[i]
		g.Go(func() error {
			blob, err := l.LoadBinary(gctx, slot.ImagePath)
			if err != nil {
				return fmt.Errorf("load tileset %q image: %w", slot.Name, err)
			}
			slot.Image = blob
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m, nil
}

// ImagePath joins the resources prefix and a tileset image name. Absolute URLs pass through.
func ImagePath(resourcesDir, image string) string {
	if u, err := url.Parse(image); err == nil && u.Scheme != "" {
		return image
	}
	if resourcesDir != "" && !strings.HasSuffix(resourcesDir, "/") {
		resourcesDir += "/"
	}
	return resourcesDir + image
}

func buildLayers(docs []layerDoc) []Layer {
	layers := make([]Layer, 0, len(docs))
	for _, d := range docs {
		visible := d.Visible == nil || *d.Visible
		switch d.Type {
		case KindTileLayer:
			layers = append(layers, Layer{
				ID:      d.ID,
				Name:    d.Name,
				Kind:    KindTileLayer,
				Visible: visible,
				Data:    tileData(d.Data),
			})
		case KindObjectGroup:
			objects := make([]Object, 0, len(d.Objects))
			for _, od := range d.Objects {
				objects = append(objects, Object{
					ID:       od.ID,
					Name:     od.Name,
					Position: Dimensions{Width: pixels(od.X), Height: pixels(od.Y)},
					Size:     Dimensions{Width: pixels(od.Width), Height: pixels(od.Height)},
				})
			}
			layers = append(layers, Layer{
				ID:      d.ID,
				Name:    d.Name,
				Kind:    KindObjectGroup,
				Visible: visible,
				Objects: objects,
			})
		default:
			// image layers and groups are not rendered
		}
	}
	return layers
}

// tileData narrows gids to int32. Flip flags in the high bits wrap, as Tiled readers expect.
func tileData(raw []int64) []int32 {
	if raw == nil {
		return nil
	}
	out := make([]int32, len(raw))
	for i, v := range raw {
		out[i] = int32(v)
	}
	return out
}

func firstGID(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// pixels truncates Tiled's float coordinates; negatives clamp to zero.
func pixels(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(v)
}
