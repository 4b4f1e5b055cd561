package media

import (
	"net/url"
	"path"
	"strings"

	"villamedia/pkg/utils"
)

// originalFilename is "<stem>-<first 8 of id><ext>". The id suffix keeps
// two uploads of "hero.jpg" apart.
func originalFilename(uploaded, id string, format Format) string {
	stem := utils.SanitizeFilename(uploaded)
	if stem == "" {
		stem = "image"
	}
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return stem + "-" + short + format.Ext()
}

// variantFilename is deterministic per (original, variant) so concurrent
// passes never collide and regeneration overwrites in place.
func variantFilename(original, variant string, format Format) string {
	stem := strings.TrimSuffix(original, path.Ext(original))
	return stem + "-" + variant + format.Ext()
}

func fileURL(prefix, filename string) string {
	return strings.TrimRight(prefix, "/") + "/" + url.PathEscape(filename)
}
