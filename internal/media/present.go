package media

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// View is the client-facing shape of a record.
type View struct {
	ID        string                `json:"id"`
	Filename  string                `json:"filename"`
	URL       string                `json:"url"`
	MimeType  string                `json:"mimeType"`
	Filesize  int64                 `json:"filesize"`
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	Alt       string                `json:"alt,omitempty"`
	Caption   string                `json:"caption,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Sizes     map[string]Descriptor `json:"sizes"`
	// Order lists Sizes keys sorted by name for stable iteration.
	Order []string `json:"-"`
}

// Present builds the view of rec with cache-busted URLs. It has no side
// effects: the same record always yields the same view. origin, when not
// empty, makes every URL absolute.
func Present(rec *Record, urlPrefix, origin string) View {
	v := View{
		ID:        rec.ID,
		Filename:  rec.Filename,
		MimeType:  rec.MimeType,
		Filesize:  rec.Size,
		Width:     rec.Width,
		Height:    rec.Height,
		Alt:       rec.Alt,
		Caption:   rec.Caption,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: time.UnixMilli(rec.ModifiedAt).UTC(),
		Sizes:     make(map[string]Descriptor, len(rec.Variants)),
	}
	if rec.Filename != "" {
		v.URL = CacheBust(fileURL(urlPrefix, rec.Filename), rec.ModifiedAt, origin)
	}

	for name, d := range rec.Variants {
		if d.URL != "" {
			d.URL = CacheBust(d.URL, rec.ModifiedAt, origin)
		}
		v.Sizes[name] = d
		v.Order = append(v.Order, name)
	}
	sort.Strings(v.Order)
	return v
}

// CacheBust sets v=<modifiedAt> on rawURL, replacing any earlier v, and
// prefixes origin when given.
func CacheBust(rawURL string, modifiedAt int64, origin string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("v", strconv.FormatInt(modifiedAt, 10))

	out := u.EscapedPath() + "?" + q.Encode()
	if u.IsAbs() {
		out = u.Scheme + "://" + u.Host + out
	} else if origin != "" {
		out = strings.TrimRight(origin, "/") + out
	}
	return out
}
