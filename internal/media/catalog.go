// Package media turns an uploaded original into a fixed set of derived
// image variants and keeps the asset record's variant index consistent
// with the files that exist.
package media

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Format is the encoding a variant is written in.
type Format int

const (
	// FormatSource keeps the encoding of the original.
	FormatSource Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatGIF
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatGIF:
		return "gif"
	}
	return "source"
}

// Ext is the file extension written for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	case FormatGIF:
		return ".gif"
	}
	return ""
}

func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	case FormatGIF:
		return "image/gif"
	}
	return "application/octet-stream"
}

// formatFromName maps an image.DecodeConfig format name.
func formatFromName(name string) (Format, bool) {
	switch name {
	case "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	case "gif":
		return FormatGIF, true
	}
	return FormatSource, false
}

type FitMode int

const (
	// FitScale resizes to the target width (or into the target box)
	// preserving the aspect ratio.
	FitScale FitMode = iota
	// FitCover fills the target box and crops the overflow around Anchor.
	FitCover
)

func (m FitMode) String() string {
	if m == FitCover {
		return "cover"
	}
	return "scale"
}

type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorTop
	AnchorBottom
	AnchorLeft
	AnchorRight
	AnchorTopLeft
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

func (a Anchor) imaging() imaging.Anchor {
	switch a {
	case AnchorTop:
		return imaging.Top
	case AnchorBottom:
		return imaging.Bottom
	case AnchorLeft:
		return imaging.Left
	case AnchorRight:
		return imaging.Right
	case AnchorTopLeft:
		return imaging.TopLeft
	case AnchorTopRight:
		return imaging.TopRight
	case AnchorBottomLeft:
		return imaging.BottomLeft
	case AnchorBottomRight:
		return imaging.BottomRight
	}
	return imaging.Center
}

// VariantSpec declares one derived size. Height 0 means "width only".
// Quality 0 means the codec default.
type VariantSpec struct {
	Name               string
	Width              int
	Height             int
	Fit                FitMode
	Anchor             Anchor
	WithoutEnlargement bool
	Format             Format
	Quality            int
	// Optional variants are produced by the best-effort secondary pass.
	// A failure never makes the record incomplete.
	Optional bool
}

// Catalog is an ordered, immutable list of variant specs.
type Catalog struct {
	specs []VariantSpec
}

// NewCatalog validates specs and freezes them.
func NewCatalog(specs ...VariantSpec) (Catalog, error) {
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return Catalog{}, fmt.Errorf("variant #%d: empty name", i)
		}
		if seen[s.Name] {
			return Catalog{}, fmt.Errorf("variant %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if s.Width <= 0 {
			return Catalog{}, fmt.Errorf("variant %q: width must be positive", s.Name)
		}
		if s.Height < 0 {
			return Catalog{}, fmt.Errorf("variant %q: height must not be negative", s.Name)
		}
		if s.Fit == FitCover && s.Height == 0 {
			return Catalog{}, fmt.Errorf("variant %q: cover needs a height", s.Name)
		}
		if s.Quality < 0 || s.Quality > 100 {
			return Catalog{}, fmt.Errorf("variant %q: quality out of range", s.Name)
		}
	}

	return Catalog{specs: append([]VariantSpec(nil), specs...)}, nil
}

// MustCatalog is NewCatalog for static tables.
func MustCatalog(specs ...VariantSpec) Catalog {
	c, err := NewCatalog(specs...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Catalog) Len() int { return len(c.specs) }

// Specs returns a copy of the ordered specs.
func (c Catalog) Specs() []VariantSpec {
	return append([]VariantSpec(nil), c.specs...)
}

// Names returns the variant names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.specs))
	for i, s := range c.specs {
		names[i] = s.Name
	}
	return names
}

func (c Catalog) Lookup(name string) (VariantSpec, bool) {
	for _, s := range c.specs {
		if s.Name == name {
			return s, true
		}
	}
	return VariantSpec{}, false
}

// DefaultCatalog is the size set the website renders from.
func DefaultCatalog() Catalog {
	return MustCatalog(
		VariantSpec{Name: "thumbnail", Width: 300, Fit: FitScale, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "square", Width: 500, Height: 500, Fit: FitCover, Anchor: AnchorCenter, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "small", Width: 600, Fit: FitScale, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "medium", Width: 900, Fit: FitScale, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "large", Width: 1400, Fit: FitScale, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "xlarge", Width: 1920, Fit: FitScale, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "blur", Width: 20, Height: 20, Fit: FitCover, Anchor: AnchorCenter, WithoutEnlargement: true, Format: FormatWebP},
		VariantSpec{Name: "og", Width: 1200, Height: 630, Fit: FitCover, Anchor: AnchorCenter, WithoutEnlargement: true, Format: FormatSource},
	)
}

// SecondaryCatalog holds the best-effort full size WebP re-encode.
func SecondaryCatalog() Catalog {
	return MustCatalog(
		VariantSpec{Name: "webp", Width: 2560, Fit: FitScale, WithoutEnlargement: true, Format: FormatWebP, Optional: true},
	)
}

// Planner hands out the variant plan for a record. The plan depends only
// on configuration, never on image content.
type Planner struct {
	catalog Catalog
}

func NewPlanner(catalog Catalog) *Planner {
	return &Planner{catalog: catalog}
}

// Plan returns the catalog in order. It never fails.
func (p *Planner) Plan() []VariantSpec {
	return p.catalog.Specs()
}
