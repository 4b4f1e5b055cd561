package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp"
)

const DefaultQuality = 82

// Codec probes originals and renders variants from them.
type Codec interface {
	Probe(data []byte) (Metadata, error)
	Generate(data []byte, spec VariantSpec) (Output, error)
}

// ImageCodec renders variants with imaging and encodes WebP through libwebp.
type ImageCodec struct {
	DefaultQuality int
}

func NewImageCodec(defaultQuality int) *ImageCodec {
	if defaultQuality <= 0 || defaultQuality > 100 {
		defaultQuality = DefaultQuality
	}
	return &ImageCodec{DefaultQuality: defaultQuality}
}

func (c *ImageCodec) Probe(data []byte) (Metadata, error) {
	format, img, err := decode(data)
	if err != nil {
		return Metadata{}, &CodecError{Op: "probe", Err: err}
	}
	b := img.Bounds()
	return Metadata{
		Format:   format,
		MimeType: format.MimeType(),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

func (c *ImageCodec) Generate(data []byte, spec VariantSpec) (Output, error) {
	if spec.Width <= 0 || spec.Height < 0 {
		return Output{}, &CodecError{Op: "generate " + spec.Name, Err: ErrInvalidTarget}
	}

	srcFormat, img, err := decode(data)
	if err != nil {
		return Output{}, &CodecError{Op: "decode " + spec.Name, Err: err}
	}

	dst := resize(img, spec)

	outFormat := spec.Format
	if outFormat == FormatSource {
		outFormat = srcFormat
	}

	quality := spec.Quality
	if quality <= 0 {
		quality = c.DefaultQuality
	}
	if quality <= 0 {
		quality = DefaultQuality
	}

	encoded, err := encode(dst, outFormat, quality)
	if err != nil {
		return Output{}, &CodecError{Op: "encode " + spec.Name, Err: err}
	}

	// Report what was actually written, not what was asked for.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(encoded))
	if err != nil {
		return Output{}, &CodecError{Op: "read back " + spec.Name, Err: err}
	}

	return Output{
		Data:     encoded,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   outFormat,
		MimeType: outFormat.MimeType(),
	}, nil
}

// decode validates the whole image, not just its header, and applies the
// EXIF orientation.
func decode(data []byte) (Format, image.Image, error) {
	if len(data) == 0 {
		return FormatSource, nil, fmt.Errorf("empty input")
	}

	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FormatSource, nil, err
	}
	format, ok := formatFromName(name)
	if !ok {
		return FormatSource, nil, fmt.Errorf("unsupported format %q", name)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return FormatSource, nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return FormatSource, nil, fmt.Errorf("image has no pixels")
	}
	return format, img, nil
}

func resize(img image.Image, spec VariantSpec) image.Image {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()

	if spec.Fit == FitCover {
		tw, th := spec.Width, spec.Height
		if th == 0 {
			th = tw
		}
		if spec.WithoutEnlargement && (sw < tw || sh < th) {
			tw, th = shrinkBox(sw, sh, tw, th)
		}
		return imaging.Fill(img, tw, th, spec.Anchor.imaging(), imaging.Lanczos)
	}

	if spec.Height > 0 {
		if spec.WithoutEnlargement && sw <= spec.Width && sh <= spec.Height {
			return img
		}
		return imaging.Fit(img, spec.Width, spec.Height, imaging.Lanczos)
	}

	if spec.WithoutEnlargement && sw <= spec.Width {
		return img
	}
	return imaging.Resize(img, spec.Width, 0, imaging.Lanczos)
}

// shrinkBox scales the target box down uniformly until it fits inside the
// source, so a cover crop never upscales and keeps the target aspect.
func shrinkBox(sw, sh, tw, th int) (int, int) {
	if sw*th <= sh*tw {
		return sw, max(1, th*sw/tw)
	}
	return max(1, tw*sh/th), sh
}

func encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatWebP:
		var opts *encoder.Options
		opts, err = encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err != nil {
			return nil, err
		}
		err = webp.Encode(&buf, img, opts)
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	default:
		return nil, fmt.Errorf("no encoder for %s", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
