package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"signvec/internal/models"
)

const DefaultBatchSize = 100

// Store is the subset of the vector database used by a load run.
type Store interface {
	DeleteCollection(ctx context.Context, name string) (deleted bool, err error)
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error
	Upsert(ctx context.Context, collection string, points []models.Point) error
}

// Loader runs one sequential load: parse every file, recreate the collection,
// upsert in batches.
type Loader struct {
	store     Store
	batchSize int
	out       io.Writer
	errOut    io.Writer
	onBatch   func(uploaded, total int)
}

type Option func(*Loader)

// WithBatchSize sets the maximum number of points per upsert call.
// Non-positive values keep the default.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithOutput sets where progress lines and per-file errors are written.
func WithOutput(out, errOut io.Writer) Option {
	return func(l *Loader) {
		if out != nil {
			l.out = out
		}
		if errOut != nil {
			l.errOut = errOut
		}
	}
}

// WithProgress registers a callback invoked after every uploaded batch.
func WithProgress(fn func(uploaded, total int)) Option {
	return func(l *Loader) {
		l.onBatch = fn
	}
}

func New(store Store, opts ...Option) *Loader {
	l := &Loader{
		store:     store,
		batchSize: DefaultBatchSize,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result summarizes a run.
type Result struct {
	Collection string
	Dimension  int
	Uploaded   int
	Skipped    int
}

// Run loads every vector file under dir into collection. An empty input is
// not an error: nothing is written to the store and a zero Result is returned.
func (l *Loader) Run(ctx context.Context, dir, collection string) (*Result, error) {
	records, skipped, err := l.LoadRecords(dir)
	if err != nil {
		return nil, err
	}

	res, err := l.Upload(ctx, collection, records)
	if errors.Is(err, ErrNoVectors) {
		fmt.Fprintln(l.out, "⚠ No vectors found!")
		return &Result{Collection: collection, Skipped: skipped}, nil
	}
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped

	fmt.Fprintf(l.out, "\n✓ Successfully uploaded %d vectors to Qdrant!\n", res.Uploaded)
	fmt.Fprintf(l.out, "Collection: %s\n", res.Collection)
	fmt.Fprintf(l.out, "Dimension: %dD\n", res.Dimension)
	return res, nil
}

// LoadRecords parses every vector file under dir. Files that cannot be read
// or parsed are reported and counted in skipped; they never abort the load.
func (l *Loader) LoadRecords(dir string) (records []models.VectorRecord, skipped int, err error) {
	fmt.Fprintln(l.out, "→ Loading vectors from JSON files...")

	files, err := Discover(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vector files in %s: %w", dir, err)
	}

	records = make([]models.VectorRecord, 0, len(files))
	for _, path := range files {
		rec, perr := ParseFile(path)
		if perr != nil {
			fmt.Fprintf(l.errOut, "✗ Error loading %s: %v\n", path, perr)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	fmt.Fprintf(l.out, "✓ Loaded %d vectors\n", len(records))
	return records, skipped, nil
}

// Upload recreates collection sized after the first record and upserts all
// records in order. Point ids are the position of the record in records.
// Vector lengths are not checked here; the store rejects mismatches.
func (l *Loader) Upload(ctx context.Context, collection string, records []models.VectorRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrNoVectors
	}

	dim := len(records[0].Vector)
	fmt.Fprintf(l.out, "→ Vector dimension: %dD\n", dim)

	if err := l.recreateCollection(ctx, collection, uint64(dim)); err != nil {
		return nil, err
	}

	fmt.Fprintf(l.out, "→ Uploading vectors in batches of %d...\n", l.batchSize)

	total := len(records)
	var nextID uint64
	for start := 0; start < total; start += l.batchSize {
		end := min(start+l.batchSize, total)

		points := make([]models.Point, 0, end-start)
		for _, rec := range records[start:end] {
			points = append(points, models.Point{
				ID:      nextID,
				Vector:  rec.Vector,
				Payload: rec.Payload(),
			})
			nextID++
		}

		if err := l.store.Upsert(ctx, collection, points); err != nil {
			return nil, fmt.Errorf("failed to upsert vectors %d-%d: %w", start, end-1, err)
		}

		fmt.Fprintf(l.out, "✓ Uploaded %d/%d vectors\n", end, total)
		if l.onBatch != nil {
			l.onBatch(end, total)
		}
	}

	return &Result{
		Collection: collection,
		Dimension:  dim,
		Uploaded:   total,
	}, nil
}

func (l *Loader) recreateCollection(ctx context.Context, name string, dim uint64) error {
	// Deletion is best-effort cleanup; a missing collection is the common case.
	if deleted, _ := l.store.DeleteCollection(ctx, name); deleted {
		fmt.Fprintf(l.out, "✓ Deleted existing collection: %s\n", name)
	}

	if err := l.store.CreateCollection(ctx, name, dim); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	fmt.Fprintf(l.out, "✓ Created collection: %s\n", name)
	return nil
}
