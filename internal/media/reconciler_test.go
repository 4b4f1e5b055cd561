package media_test

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"villamedia/internal/appinfo"
	"villamedia/internal/database"
	"villamedia/internal/media"
	"villamedia/internal/testsupport"
)

type harness struct {
	rec   *media.Reconciler
	store *database.AssetStore
	files *testsupport.MemFiles
	codec *testsupport.FailingCodec
}

func newHarness(t *testing.T, tweak func(*media.Options)) *harness {
	t.Helper()

	h := &harness{
		store: testsupport.MustOpenStore(t),
		files: testsupport.NewMemFiles(),
		codec: testsupport.NewFailingCodec(media.NewImageCodec(82)),
	}
	opts := media.Options{
		Catalog:     media.DefaultCatalog(),
		Secondary:   media.SecondaryCatalog(),
		URLPrefix:   "/media",
		Parallelism: 4,
	}
	if tweak != nil {
		tweak(&opts)
	}
	h.rec = media.NewReconciler(h.store, h.files, h.codec, opts)
	t.Cleanup(h.rec.Wait)
	return h
}

func (h *harness) upload(t *testing.T) media.Upload {
	t.Helper()
	return media.Upload{
		Filename: "Living Room.jpg",
		MimeType: "image/jpeg",
		Data:     testsupport.NewJPEG(t, 400, 300),
		Alt:      "Living room",
	}
}

func TestCreateProducesConsistentRecord(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if got := rec.State(media.DefaultCatalog()); got != media.StateConsistent {
		t.Fatalf("state = %s, want consistent", got)
	}
	if !strings.HasPrefix(rec.Filename, "living-room-") || !strings.HasSuffix(rec.Filename, ".jpg") {
		t.Errorf("filename = %s", rec.Filename)
	}
	if rec.Width != 400 || rec.Height != 300 || rec.Alt != "Living room" {
		t.Errorf("metadata = %dx%d alt=%q", rec.Width, rec.Height, rec.Alt)
	}

	stored, err := h.rec.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Variants) != 9 {
		t.Fatalf("variants = %d, want 8 required + webp", len(stored.Variants))
	}

	for name, d := range stored.Variants {
		ok, _ := h.files.Exists(ctx, d.Filename)
		if !ok {
			t.Errorf("%s: file %s missing", name, d.Filename)
		}
		if d.URL != "/media/"+d.Filename {
			t.Errorf("%s: url = %s", name, d.URL)
		}
	}
	if ok, _ := h.files.Exists(ctx, rec.Filename); !ok {
		t.Error("original missing")
	}

	if d := stored.Variants["og"]; d.Width != 400 || d.Height != 210 || d.MimeType != "image/jpeg" {
		t.Errorf("og = %+v", d)
	}
	if d := stored.Variants["thumbnail"]; d.Width != 300 || d.Height != 225 {
		t.Errorf("thumbnail = %+v", d)
	}
}

func TestCreateRejectsCorruptOriginal(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.rec.Create(ctx, media.Upload{Filename: "broken.jpg", Data: []byte("not really a jpeg")})
	if !errors.Is(err, media.ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}

	if names := h.files.Names(); len(names) != 0 {
		t.Fatalf("files written for a rejected upload: %v", names)
	}
	if _, total, _ := h.rec.List(ctx, media.ListQuery{}); total != 0 {
		t.Fatalf("records = %d, want 0", total)
	}
}

func TestCreateRejectsEmptyUpload(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.rec.Create(context.Background(), media.Upload{Filename: "a.jpg"})
	if !errors.Is(err, media.ErrInvalidUpload) {
		t.Fatalf("expected ErrInvalidUpload, got %v", err)
	}
}

func TestVariantFailureKeepsSiblings(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.codec.FailOn("square", errors.New("boom"))

	rec, err := h.rec.Create(ctx, h.upload(t))

	var incomplete *media.IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if !reflect.DeepEqual(incomplete.Missing, []string{"square"}) {
		t.Errorf("missing = %v", incomplete.Missing)
	}
	if rec == nil || len(rec.Variants) != 7 {
		t.Fatalf("expected the 7 other variants, got %v", rec)
	}
	if rec.State(media.DefaultCatalog()) != media.StateVariantsPending {
		t.Errorf("state = %s", rec.State(media.DefaultCatalog()))
	}

	// Operator retry once the cause is gone.
	h.codec.Clear()
	fixed, err := h.rec.Regenerate(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if fixed.State(media.DefaultCatalog()) != media.StateConsistent {
		t.Fatalf("state after regenerate = %s", fixed.State(media.DefaultCatalog()))
	}
	if fixed.ModifiedAt <= rec.ModifiedAt {
		t.Errorf("ModifiedAt did not advance: %d -> %d", rec.ModifiedAt, fixed.ModifiedAt)
	}
}

func TestRegenerateIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before, _ := h.rec.Get(ctx, rec.ID)
	writes := h.files.Writes()

	after, err := h.rec.Regenerate(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if h.files.Writes() != writes {
		t.Errorf("regenerate wrote %d files for a complete record", h.files.Writes()-writes)
	}
	if after.ModifiedAt != before.ModifiedAt {
		t.Errorf("ModifiedAt changed: %d -> %d", before.ModifiedAt, after.ModifiedAt)
	}
	if !reflect.DeepEqual(after.Variants, before.Variants) {
		t.Error("variant index changed")
	}
}

func TestRegenerateFillsOnlyGaps(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before, _ := h.rec.Get(ctx, rec.ID)

	h.files.Drop(before.Variants["medium"].Filename)
	writes := h.files.Writes()

	after, err := h.rec.Regenerate(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	if got := h.files.Writes() - writes; got != 1 {
		t.Errorf("writes = %d, want 1", got)
	}
	if ok, _ := h.files.Exists(ctx, after.Variants["medium"].Filename); !ok {
		t.Error("medium was not restored")
	}
	if after.ModifiedAt <= before.ModifiedAt {
		t.Error("ModifiedAt did not advance after a merge")
	}
	for _, name := range []string{"thumbnail", "large", "og", "webp"} {
		if after.Variants[name] != before.Variants[name] {
			t.Errorf("%s changed: %+v -> %+v", name, before.Variants[name], after.Variants[name])
		}
	}
}

func TestSecondaryFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.codec.FailOn("webp", errors.New("encoder exploded"))

	failures := appinfo.SecondaryFailures.Load()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create must not fail on the secondary pass: %v", err)
	}

	stored, _ := h.rec.Get(ctx, rec.ID)
	if _, ok := stored.Variants["webp"]; ok {
		t.Fatal("webp descriptor recorded despite failure")
	}
	if stored.State(media.DefaultCatalog()) != media.StateConsistent {
		t.Fatal("secondary failure changed the record state")
	}
	if got := appinfo.SecondaryFailures.Load() - failures; got != 1 {
		t.Errorf("secondary failures counted %d times, want 1", got)
	}
}

func TestAsyncSecondary(t *testing.T) {
	h := newHarness(t, func(o *media.Options) { o.AsyncSecondary = true })
	ctx, cancel := context.WithCancel(context.Background())

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// The request is over; the background pass must not care.
	cancel()
	h.rec.Wait()

	stored, err := h.rec.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := stored.Variants["webp"]
	if !ok {
		t.Fatal("webp variant missing after Wait")
	}
	if d.Width != 400 || d.MimeType != "image/webp" {
		t.Errorf("webp = %+v", d)
	}
	if stored.ModifiedAt <= rec.ModifiedAt {
		t.Error("secondary merge did not advance ModifiedAt")
	}
}

func TestInlineSecondaryIsReturned(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stored, err := h.rec.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Variants["webp"]; !ok {
		t.Fatal("Create returned a record without the webp variant")
	}
	if rec.ModifiedAt != stored.ModifiedAt {
		t.Errorf("ModifiedAt = %d, stored %d", rec.ModifiedAt, stored.ModifiedAt)
	}
	if !reflect.DeepEqual(h.rec.Present(rec, ""), h.rec.Present(stored, "")) {
		t.Error("returned view differs from the stored record")
	}

	h.files.Drop(stored.Variants["webp"].Filename)
	regen, err := h.rec.Regenerate(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	again, _ := h.rec.Get(ctx, rec.ID)
	if regen.ModifiedAt != again.ModifiedAt || regen.ModifiedAt <= stored.ModifiedAt {
		t.Errorf("ModifiedAt: regenerate %d, stored %d, before %d", regen.ModifiedAt, again.ModifiedAt, stored.ModifiedAt)
	}
	if _, ok := regen.Variants["webp"]; !ok {
		t.Error("Regenerate returned a record without the webp variant")
	}
}

// deletingCodec removes the record while the secondary variant renders.
type deletingCodec struct {
	media.Codec
	store *database.AssetStore
	id    string
	once  sync.Once
}

func (c *deletingCodec) Generate(data []byte, spec media.VariantSpec) (media.Output, error) {
	if spec.Name == "webp" {
		c.once.Do(func() { c.store.Delete(context.Background(), c.id) })
	}
	return c.Codec.Generate(data, spec)
}

func TestBatchOnDeletedRecordCleansUp(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	files := testsupport.NewMemFiles()
	codec := &deletingCodec{Codec: media.NewImageCodec(82), store: store, id: "11111111-2222-3333-4444-555555555555"}

	r := media.NewReconciler(store, files, codec, media.Options{
		Catalog:   media.DefaultCatalog(),
		Secondary: media.SecondaryCatalog(),
		NewID:     func() string { return codec.id },
	})

	rec, err := r.Create(context.Background(), media.Upload{Filename: "hall.jpg", Data: testsupport.NewJPEG(t, 200, 100)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	webp := strings.TrimSuffix(rec.Filename, ".jpg") + "-webp.webp"
	if ok, _ := files.Exists(context.Background(), webp); ok {
		t.Fatalf("%s left behind for a deleted record", webp)
	}
	if _, err := store.Get(context.Background(), rec.ID); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := h.rec.Delete(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ID != rec.ID {
		t.Errorf("deleted id = %s", deleted.ID)
	}
	if names := h.files.Names(); len(names) != 0 {
		t.Fatalf("files left: %v", names)
	}
	if _, err := h.rec.Get(ctx, rec.ID); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.rec.Delete(ctx, rec.ID); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteToleratesMissingFiles(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	h.files.Drop(rec.Variants["blur"].Filename)

	if _, err := h.rec.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete failed on an already missing file: %v", err)
	}
}

func TestConcurrentCreates(t *testing.T) {
	h := newHarness(t, func(o *media.Options) { o.AsyncSecondary = true })
	ctx := context.Background()
	src := testsupport.NewJPEG(t, 320, 240)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.rec.Create(ctx, media.Upload{Filename: "hero.jpg", Data: src})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	h.rec.Wait()

	recs, total, err := h.rec.List(ctx, media.ListQuery{Limit: 10})
	if err != nil || total != 6 {
		t.Fatalf("List = %d, %v", total, err)
	}
	seen := map[string]bool{}
	for _, r := range recs {
		if seen[r.Filename] {
			t.Fatalf("duplicate filename %s", r.Filename)
		}
		seen[r.Filename] = true
		if len(r.Variants) != 9 {
			t.Errorf("%s: %d variants", r.Filename, len(r.Variants))
		}
	}
}

func TestReconcilerPresent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	rec, err := h.rec.Create(ctx, h.upload(t))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	stored, _ := h.rec.Get(ctx, rec.ID)

	v := h.rec.Present(stored, "")
	suffix := "?v=" + strconv.FormatInt(stored.ModifiedAt, 10)
	if !strings.HasSuffix(v.URL, suffix) {
		t.Errorf("url %s lacks %s", v.URL, suffix)
	}
	for name, d := range v.Sizes {
		if !strings.HasSuffix(d.URL, suffix) {
			t.Errorf("%s url %s lacks %s", name, d.URL, suffix)
		}
	}
}
