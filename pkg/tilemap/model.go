package tilemap

import (
	"image"

	"github.com/samvad-hq/samvad-asset-loader/pkg/loader"
)

// Layer kinds as written by the Tiled editor.
const (
	KindTileLayer   = "tilelayer"
	KindObjectGroup = "objectgroup"
)

// Dimensions is a width/height pair in tiles or pixels depending on context.
type Dimensions struct {
	Width  uint32
	Height uint32
}

// Map is a decoded tile map with its tileset images loaded.
type Map struct {
	Path     string
	Size     Dimensions
	TileSize Dimensions
	Layers   []Layer
	Tilesets []Tileset
}

// Layer is either a tile layer (Data set) or an object group (Objects set).
type Layer struct {
	ID      uint32
	Name    string
	Kind    string
	Visible bool
	Data    []int32
	Objects []Object
}

// Object is a named rectangle placed on an object group layer.
type Object struct {
	ID       uint32
	Name     string
	Position Dimensions
	Size     Dimensions
}

// Tileset is a spritesheet sliced into equally sized tiles.
type Tileset struct {
	Name      string
	FirstGID  uint32
	ImagePath string
	Image     loader.Blob
	Columns   uint32
	TileCount uint32
	TileSize  Dimensions
	ImageSize Dimensions
}

// TileAt returns the tile id at (x, y) on the given layer index.
func (m *Map) TileAt(layer int, x, y uint32) (int32, bool) {
	if m == nil || layer < 0 || layer >= len(m.Layers) {
		return 0, false
	}
	l := m.Layers[layer]
	if l.Kind != KindTileLayer || x >= m.Size.Width || y >= m.Size.Height {
		return 0, false
	}
	idx := int(y)*int(m.Size.Width) + int(x)
	if idx >= len(l.Data) {
		return 0, false
	}
	return l.Data[idx], true
}

// LayerByName returns the first layer with the given name.
func (m *Map) LayerByName(name string) (Layer, bool) {
	if m == nil {
		return Layer{}, false
	}
	for _, l := range m.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// TilesetFor returns the tileset owning gid: the one with the highest FirstGID not above it.
func (m *Map) TilesetFor(gid int32) (*Tileset, bool) {
	if m == nil || gid <= 0 {
		return nil, false
	}
	var best *Tileset
	for i := range m.Tilesets {
		ts := &m.Tilesets[i]
		if ts.FirstGID <= uint32(gid) && (best == nil || ts.FirstGID > best.FirstGID) {
			best = ts
		}
	}
	return best, best != nil
}

// TileRect returns the pixel rectangle of gid inside the tileset image.
func (t *Tileset) TileRect(gid int32) (image.Rectangle, bool) {
	if t == nil || t.Columns == 0 || gid < int32(t.FirstGID) {
		return image.Rectangle{}, false
	}
	local := uint32(gid) - t.FirstGID
	if t.TileCount > 0 && local >= t.TileCount {
		return image.Rectangle{}, false
	}
	col := int(local % t.Columns)
	row := int(local / t.Columns)
	w, h := int(t.TileSize.Width), int(t.TileSize.Height)
	return image.Rect(col*w, row*h, col*w+w, row*h+h), true
}
