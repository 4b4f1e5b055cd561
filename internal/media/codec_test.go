package media_test

import (
	"errors"
	"testing"

	"villamedia/internal/media"
	"villamedia/internal/testsupport"
)

func specByName(t *testing.T, name string) media.VariantSpec {
	t.Helper()
	spec, ok := media.DefaultCatalog().Lookup(name)
	if !ok {
		t.Fatalf("no variant %q", name)
	}
	return spec
}

func TestGenerateLargeSource(t *testing.T) {
	codec := media.NewImageCodec(82)
	src := testsupport.NewJPEG(t, 2000, 1000)

	cases := []struct {
		variant string
		w, h    int
		mime    string
	}{
		{"thumbnail", 300, 150, "image/webp"},
		{"square", 500, 500, "image/webp"},
		{"xlarge", 1920, 960, "image/webp"},
		{"blur", 20, 20, "image/webp"},
		{"og", 1200, 630, "image/jpeg"},
	}

	for _, c := range cases {
		t.Run(c.variant, func(t *testing.T) {
			out, err := codec.Generate(src, specByName(t, c.variant))
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if out.Width != c.w || out.Height != c.h {
				t.Errorf("size = %dx%d, want %dx%d", out.Width, out.Height, c.w, c.h)
			}
			if out.MimeType != c.mime {
				t.Errorf("mime = %s, want %s", out.MimeType, c.mime)
			}
			if len(out.Data) == 0 {
				t.Error("empty output")
			}
		})
	}
}

func TestGenerateNeverUpscales(t *testing.T) {
	codec := media.NewImageCodec(82)
	src := testsupport.NewPNG(t, 100, 100)

	cases := []struct {
		variant string
		w, h    int
	}{
		{"thumbnail", 100, 100},
		{"xlarge", 100, 100},
		{"square", 100, 100},
		{"og", 100, 52},
		{"blur", 20, 20},
	}

	for _, c := range cases {
		out, err := codec.Generate(src, specByName(t, c.variant))
		if err != nil {
			t.Fatalf("%s: Generate failed: %v", c.variant, err)
		}
		if out.Width != c.w || out.Height != c.h {
			t.Errorf("%s: size = %dx%d, want %dx%d", c.variant, out.Width, out.Height, c.w, c.h)
		}
	}

	out, err := codec.Generate(src, specByName(t, "og"))
	if err != nil {
		t.Fatalf("og failed: %v", err)
	}
	if out.Format != media.FormatPNG {
		t.Errorf("og should keep the source format, got %s", out.Format)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	codec := media.NewImageCodec(82)

	_, err := codec.Generate([]byte("definitely not an image"), specByName(t, "thumbnail"))
	if !errors.Is(err, media.ErrCodec) {
		t.Fatalf("corrupt input: expected ErrCodec, got %v", err)
	}

	src := testsupport.NewJPEG(t, 50, 50)
	_, err = codec.Generate(src, media.VariantSpec{Name: "zero", Width: 0, Format: media.FormatWebP})
	if !errors.Is(err, media.ErrCodec) || !errors.Is(err, media.ErrInvalidTarget) {
		t.Fatalf("zero width: expected ErrCodec wrapping ErrInvalidTarget, got %v", err)
	}

	truncated := testsupport.NewPNG(t, 64, 64)
	truncated = truncated[:len(truncated)/2]
	if _, err := codec.Probe(truncated); !errors.Is(err, media.ErrCodec) {
		t.Fatalf("truncated probe: expected ErrCodec, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	codec := media.NewImageCodec(0)

	meta, err := codec.Probe(testsupport.NewJPEG(t, 640, 480))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if meta.Format != media.FormatJPEG || meta.MimeType != "image/jpeg" {
		t.Errorf("format = %s %s", meta.Format, meta.MimeType)
	}
	if meta.Width != 640 || meta.Height != 480 {
		t.Errorf("size = %dx%d", meta.Width, meta.Height)
	}
	if codec.DefaultQuality != media.DefaultQuality {
		t.Errorf("default quality = %d", codec.DefaultQuality)
	}
}

func TestQualityAffectsSize(t *testing.T) {
	codec := media.NewImageCodec(82)
	src := testsupport.NewJPEG(t, 800, 600)

	spec := media.VariantSpec{Name: "q", Width: 800, Format: media.FormatJPEG}
	spec.Quality = 20
	low, err := codec.Generate(src, spec)
	if err != nil {
		t.Fatal(err)
	}
	spec.Quality = 95
	high, err := codec.Generate(src, spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(low.Data) >= len(high.Data) {
		t.Fatalf("quality 20 (%d bytes) should be smaller than 95 (%d bytes)", len(low.Data), len(high.Data))
	}
}
