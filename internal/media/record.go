package media

import "time"

// Descriptor is one entry of a record's variant index.
type Descriptor struct {
	Name     string `json:"-"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"filesize"`
}

// Record is a stored media asset: the original plus its variant index.
type Record struct {
	ID         string
	Filename   string
	MimeType   string
	Size       int64
	Width      int
	Height     int
	Alt        string
	Caption    string
	CreatedAt  time.Time
	ModifiedAt int64 // unix ms, strictly increasing on every mutation
	Variants   map[string]Descriptor
}

type State int

const (
	StateNoOriginal State = iota
	StateOriginalOnly
	StateVariantsPending
	StateConsistent
)

func (s State) String() string {
	switch s {
	case StateOriginalOnly:
		return "original_only"
	case StateVariantsPending:
		return "variants_pending"
	case StateConsistent:
		return "consistent"
	}
	return "no_original"
}

// State derives the lifecycle state from the index alone. Whether the
// referenced files exist is checked by Reconciler.Regenerate.
func (r *Record) State(catalog Catalog) State {
	if r == nil || r.Filename == "" {
		return StateNoOriginal
	}
	if len(r.Variants) == 0 {
		return StateOriginalOnly
	}
	for _, spec := range catalog.specs {
		if spec.Optional {
			continue
		}
		if d, ok := r.Variants[spec.Name]; !ok || d.Filename == "" {
			return StateVariantsPending
		}
	}
	return StateConsistent
}

// Missing lists required catalog variants absent from the index.
func (r *Record) Missing(catalog Catalog) []string {
	var missing []string
	for _, spec := range catalog.specs {
		if spec.Optional {
			continue
		}
		if d, ok := r.Variants[spec.Name]; !ok || d.Filename == "" {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}

// Upload is what the intake hands to Reconciler.Create.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
	Alt      string
	Caption  string
}

// Metadata is what Probe learns about an original.
type Metadata struct {
	Format   Format
	MimeType string
	Width    int
	Height   int
}

// Output is one encoded variant. Width and Height are read back from Data.
type Output struct {
	Data     []byte
	Width    int
	Height   int
	Format   Format
	MimeType string
}

type ListQuery struct {
	Page   int
	Limit  int
	Search string // filename prefix
}
