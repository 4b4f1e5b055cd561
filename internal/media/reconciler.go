package media

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"villamedia/internal/appinfo"
	"villamedia/pkg/logger"
)

type Options struct {
	Catalog   Catalog
	Secondary Catalog
	URLPrefix string
	// Parallelism bounds concurrent variant generation per batch.
	Parallelism int
	// AsyncSecondary runs the secondary pass in the background. Wait blocks
	// until those passes are done.
	AsyncSecondary bool
	Logger         *logger.Logger

	Now   func() time.Time
	NewID func() string
}

// Reconciler owns the lifecycle of media records: it stores the original,
// renders the planned variants and merges their descriptors into the
// record's index.
type Reconciler struct {
	store   Store
	files   FileStore
	codec   Codec
	planner *Planner

	secondary   Catalog
	urlPrefix   string
	parallelism int
	async       bool
	log         *logger.Logger
	now         func() time.Time
	newID       func() string

	inflight sync.WaitGroup
}

func NewReconciler(store Store, files FileStore, codec Codec, opts Options) *Reconciler {
	r := &Reconciler{
		store:       store,
		files:       files,
		codec:       codec,
		planner:     NewPlanner(opts.Catalog),
		secondary:   opts.Secondary,
		urlPrefix:   opts.URLPrefix,
		parallelism: opts.Parallelism,
		async:       opts.AsyncSecondary,
		log:         opts.Logger,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if r.urlPrefix == "" {
		r.urlPrefix = "/media"
	}
	if r.parallelism <= 0 {
		r.parallelism = 1
	}
	if r.log == nil {
		r.log = logger.New("media")
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// Create stores the original, inserts the record and renders every planned
// variant before returning. An undecodable original is rejected before
// anything is written. When required variants fail the stored record is
// returned together with an *IncompleteError.
func (r *Reconciler) Create(ctx context.Context, up Upload) (*Record, error) {
	if strings.TrimSpace(up.Filename) == "" || len(up.Data) == 0 {
		return nil, fmt.Errorf("%w: filename and file data are required", ErrInvalidUpload)
	}

	meta, err := r.codec.Probe(up.Data)
	if err != nil {
		return nil, err
	}

	id := r.newID()
	name := originalFilename(up.Filename, id, meta.Format)

	if err := r.files.Write(ctx, name, meta.MimeType, up.Data); err != nil {
		return nil, fmt.Errorf("store original %s: %w", name, err)
	}

	now := r.now()
	rec := &Record{
		ID:         id,
		Filename:   name,
		MimeType:   meta.MimeType,
		Size:       int64(len(up.Data)),
		Width:      meta.Width,
		Height:     meta.Height,
		Alt:        up.Alt,
		Caption:    up.Caption,
		CreatedAt:  now,
		ModifiedAt: now.UnixMilli(),
		Variants:   map[string]Descriptor{},
	}
	if err := r.store.Create(ctx, rec); err != nil {
		r.removeQuietly(ctx, name)
		return nil, fmt.Errorf("create record: %w", err)
	}
	appinfo.AddAsset(rec.Size)

	updated, failures, err := r.runBatch(ctx, rec, up.Data, r.planner.Plan())
	if err != nil {
		return rec, fmt.Errorf("record %s: %w", id, err)
	}

	if r.scheduleSecondary(ctx, id) {
		updated = r.reload(ctx, updated)
	}

	if missing := updated.Missing(r.planner.catalog); len(missing) > 0 {
		r.log.Warn("%s stored with %d missing variants: %s", name, len(missing), strings.Join(missing, ", "))
		return updated, &IncompleteError{ID: id, Missing: missing, Failures: failures}
	}

	r.log.Success("%s stored with %d variants", name, len(updated.Variants))
	return updated, nil
}

// Regenerate fills gaps in the required variant set. A variant counts as
// present when its descriptor names a file that exists; present variants
// are left untouched and a record with no gaps is not modified at all.
func (r *Reconciler) Regenerate(ctx context.Context, id string) (*Record, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	todo, err := r.gaps(ctx, rec, r.planner.Plan())
	if err != nil {
		return nil, err
	}

	var failures []VariantFailure
	if len(todo) > 0 {
		source, err := r.readOriginal(ctx, rec)
		if err != nil {
			return rec, err
		}

		updated, batchFailures, err := r.runBatch(ctx, rec, source, todo)
		if err != nil {
			return rec, fmt.Errorf("record %s: %w", id, err)
		}
		rec, failures = updated, batchFailures
		r.log.Info("%s: regenerated %d variants", rec.Filename, len(todo)-len(failures))
	}

	if r.scheduleSecondary(ctx, id) {
		rec = r.reload(ctx, rec)
	}

	if missing := rec.Missing(r.planner.catalog); len(missing) > 0 {
		return rec, &IncompleteError{ID: id, Missing: missing, Failures: failures}
	}
	return rec, nil
}

// DeriveSecondary runs the best-effort pass for id. Failures are logged and
// counted once, then dropped; the record stays as it was.
func (r *Reconciler) DeriveSecondary(ctx context.Context, id string) {
	defer func() {
		if p := recover(); p != nil {
			appinfo.SecondaryFailed()
			r.log.Error("secondary pass for %s panicked: %v", id, p)
		}
	}()

	if err := r.deriveSecondary(ctx, id); err != nil {
		appinfo.SecondaryFailed()
		r.log.Warn("secondary pass for %s failed: %v", id, err)
	}
}

func (r *Reconciler) deriveSecondary(ctx context.Context, id string) error {
	if r.secondary.Len() == 0 {
		return nil
	}

	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}

	todo, err := r.gaps(ctx, rec, r.secondary.Specs())
	if err != nil || len(todo) == 0 {
		return err
	}

	source, err := r.readOriginal(ctx, rec)
	if err != nil {
		return err
	}

	_, failures, err := r.runBatch(ctx, rec, source, todo)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = fmt.Errorf("%s: %w", f.Name, f.Err)
		}
		return errors.Join(errs...)
	}
	return nil
}

// Wait blocks until background secondary passes have finished.
func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

func (r *Reconciler) Get(ctx context.Context, id string) (*Record, error) {
	return r.store.Get(ctx, id)
}

func (r *Reconciler) List(ctx context.Context, q ListQuery) ([]Record, int64, error) {
	return r.store.List(ctx, q)
}

// Delete removes the record, then its variant files, then the original.
// File removal is best-effort: the deleted record is returned together with
// an ErrPartialDelete error listing what was left behind.
func (r *Reconciler) Delete(ctx context.Context, id string) (*Record, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	appinfo.RemoveAsset(rec.Size)

	names := make([]string, 0, len(rec.Variants))
	for name := range rec.Variants {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if f := rec.Variants[name].Filename; f != "" {
			if err := r.files.Remove(ctx, f); err != nil && !errors.Is(err, ErrFileNotFound) {
				errs = append(errs, fmt.Errorf("%s: %w", f, err))
			}
		}
	}
	if err := r.files.Remove(ctx, rec.Filename); err != nil && !errors.Is(err, ErrFileNotFound) {
		errs = append(errs, fmt.Errorf("%s: %w", rec.Filename, err))
	}

	if len(errs) > 0 {
		r.log.Warn("%s deleted, %d files left behind", rec.Filename, len(errs))
		return rec, fmt.Errorf("%w: %w", ErrPartialDelete, errors.Join(errs...))
	}
	r.log.Info("%s deleted with %d variants", rec.Filename, len(names))
	return rec, nil
}

// Present renders rec for clients; see the package level Present.
func (r *Reconciler) Present(rec *Record, origin string) View {
	return Present(rec, r.urlPrefix, origin)
}

// scheduleSecondary starts the best-effort pass and reports whether it ran
// inline, in which case the stored record may be newer than the caller's.
func (r *Reconciler) scheduleSecondary(ctx context.Context, id string) bool {
	if r.secondary.Len() == 0 {
		return false
	}
	if !r.async {
		r.DeriveSecondary(ctx, id)
		return true
	}

	bg := context.WithoutCancel(ctx)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.DeriveSecondary(bg, id)
	}()
	return false
}

// reload re-reads rec from the store, keeping rec when that fails.
func (r *Reconciler) reload(ctx context.Context, rec *Record) *Record {
	fresh, err := r.store.Get(ctx, rec.ID)
	if err != nil {
		r.log.Warn("reload %s: %v", rec.ID, err)
		return rec
	}
	return fresh
}

func (r *Reconciler) gaps(ctx context.Context, rec *Record, specs []VariantSpec) ([]VariantSpec, error) {
	var todo []VariantSpec
	for _, spec := range specs {
		d, ok := rec.Variants[spec.Name]
		if !ok || d.Filename == "" {
			todo = append(todo, spec)
			continue
		}
		exists, err := r.files.Exists(ctx, d.Filename)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", d.Filename, err)
		}
		if !exists {
			todo = append(todo, spec)
		}
	}
	return todo, nil
}

func (r *Reconciler) readOriginal(ctx context.Context, rec *Record) ([]byte, error) {
	data, err := r.files.Read(ctx, rec.Filename)
	if err != nil {
		return nil, fmt.Errorf("read original %s: %w", rec.Filename, err)
	}
	return data, nil
}

// runBatch renders specs in parallel and merges whatever succeeded in a
// single index update. A failed variant never aborts its siblings. The
// returned error is only set when the merge itself fails.
func (r *Reconciler) runBatch(ctx context.Context, rec *Record, source []byte, specs []VariantSpec) (*Record, []VariantFailure, error) {
	if len(specs) == 0 {
		return rec, nil, nil
	}

	results := make([]Descriptor, len(specs))
	errs := make([]error, len(specs))

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i, spec := range specs {
		g.Go(func() error {
			results[i], errs[i] = r.produce(ctx, rec, source, spec)
			return nil
		})
	}
	g.Wait()

	var produced []Descriptor
	var failures []VariantFailure
	for i, spec := range specs {
		if errs[i] != nil {
			r.log.Warn("%s: variant %s failed: %v", rec.Filename, spec.Name, errs[i])
			failures = append(failures, VariantFailure{Name: spec.Name, Optional: spec.Optional, Err: errs[i]})
			continue
		}
		produced = append(produced, results[i])
	}

	if len(produced) == 0 {
		return rec, failures, nil
	}

	updated, err := r.store.MergeVariants(ctx, rec.ID, produced)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deleted while we were rendering.
			for _, d := range produced {
				r.removeQuietly(ctx, d.Filename)
			}
		}
		return nil, failures, fmt.Errorf("merge variants: %w", err)
	}
	return updated, failures, nil
}

func (r *Reconciler) produce(ctx context.Context, rec *Record, source []byte, spec VariantSpec) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, err
	}

	out, err := r.codec.Generate(source, spec)
	if err != nil {
		appinfo.VariantFailed()
		return Descriptor{}, err
	}

	name := variantFilename(rec.Filename, spec.Name, out.Format)
	if err := r.files.Write(ctx, name, out.MimeType, out.Data); err != nil {
		appinfo.VariantFailed()
		return Descriptor{}, fmt.Errorf("write %s: %w", name, err)
	}
	appinfo.VariantGenerated()

	return Descriptor{
		Name:     spec.Name,
		Filename: name,
		URL:      fileURL(r.urlPrefix, name),
		Width:    out.Width,
		Height:   out.Height,
		MimeType: out.MimeType,
		Size:     int64(len(out.Data)),
	}, nil
}

func (r *Reconciler) removeQuietly(ctx context.Context, name string) {
	if err := r.files.Remove(ctx, name); err != nil && !errors.Is(err, ErrFileNotFound) {
		r.log.Warn("could not remove %s: %v", name, err)
	}
}
