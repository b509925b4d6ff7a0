// Package ingest turns local image handles into durable object-storage
// references. Uploads in a batch may run concurrently; results always come
// back in selection order and a failed image never discards its siblings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/remote"
	"github.com/rentsaathi/listingsync/internal/filex"
	"github.com/rentsaathi/listingsync/internal/logging"
)

const (
	DefaultConcurrency = 3
	DefaultMaxBytes    = 10 << 20
)

var (
	ErrEmptyImage     = errors.New("image is empty")
	ErrNotDurable     = errors.New("object store returned a non-durable reference")
	ErrUnsupported    = errors.New("unsupported image handle")
	ErrMissingListing = errors.New("listing id is required")
)

// Reader loads the bytes behind a local handle.
type Reader func(ctx context.Context, handle string, maxBytes int64) ([]byte, error)

type Options struct {
	Concurrency int
	MaxBytes    int64
	Read        Reader
	Now         func() time.Time
	Token       func() string
	Logger      logging.Logger
}

type Pipeline struct {
	store       remote.ObjectStore
	concurrency int
	maxBytes    int64
	read        Reader
	now         func() time.Time
	token       func() string
	log         logging.Logger
}

func New(store remote.ObjectStore, opts Options) *Pipeline {
	p := &Pipeline{
		store:       store,
		concurrency: opts.Concurrency,
		maxBytes:    opts.MaxBytes,
		read:        opts.Read,
		now:         opts.Now,
		token:       opts.Token,
		log:         opts.Logger,
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultConcurrency
	}
	if p.maxBytes <= 0 {
		p.maxBytes = DefaultMaxBytes
	}
	if p.read == nil {
		p.read = ReadFile
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.token == nil {
		p.token = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] }
	}
	if p.log == nil {
		p.log = logging.Nop()
	}
	return p
}

// Outcome is the result for one selected image.
type Outcome struct {
	Source string
	Ref    string
	Err    error
}

// Batch holds one outcome per input handle, in input order.
type Batch struct {
	Outcomes []Outcome
}

// Refs returns the durable references of successful outcomes in order.
func (b Batch) Refs() []string {
	out := make([]string, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Err == nil {
			out = append(out, o.Ref)
		}
	}
	return out
}

// Resolved returns the input sequence with each successful handle replaced
// by its reference. Failed handles stay in place so they can be retried.
func (b Batch) Resolved() []string {
	out := make([]string, len(b.Outcomes))
	for i, o := range b.Outcomes {
		if o.Err == nil {
			out[i] = o.Ref
		} else {
			out[i] = o.Source
		}
	}
	return out
}

func (b Batch) Failures() []Failure {
	var out []Failure
	for i, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, Failure{Index: i, Source: o.Source, Err: o.Err})
		}
	}
	return out
}

// Ingest uploads every local handle in images under listingID. Durable
// references pass through untouched. A non-nil error is a *BatchError
// naming the failed images; the batch still reports every success.
func (p *Pipeline) Ingest(ctx context.Context, listingID string, images []string) (Batch, error) {
	batch := Batch{Outcomes: make([]Outcome, len(images))}
	if listingID == "" {
		for i, src := range images {
			batch.Outcomes[i] = Outcome{Source: src, Err: ErrMissingListing}
		}
		return batch, &BatchError{ListingID: listingID, Failures: batch.Failures()}
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, src := range images {
		batch.Outcomes[i].Source = src
		if models.IsDurable(src) {
			batch.Outcomes[i].Ref = src
			continue
		}
		g.Go(func() error {
			ref, err := p.ingestOne(ctx, listingID, src)
			batch.Outcomes[i].Ref = ref
			batch.Outcomes[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	if failures := batch.Failures(); len(failures) > 0 {
		p.log.Warn(ctx, "image ingestion incomplete", "listing_id", listingID, "failed", len(failures), "total", len(images))
		return batch, &BatchError{ListingID: listingID, Failures: failures}
	}
	return batch, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, listingID, handle string) (string, error) {
	data, err := p.read(ctx, handle, p.maxBytes)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	ext, contentType := describe(handle, data)
	key := ObjectKey(listingID, fmt.Sprintf("%d-%s", p.now().UnixMilli(), p.token()), ext)

	if err := p.store.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	ref, err := p.store.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve reference: %w", err)
	}
	if !models.IsDurable(ref) {
		return "", fmt.Errorf("%w: %q", ErrNotDurable, ref)
	}

	p.log.Debug(ctx, "image ingested", "listing_id", listingID, "key", key, "bytes", len(data))
	return ref, nil
}

// ObjectKey builds listings/{listingID}/{token}{ext}.
func ObjectKey(listingID, token, ext string) string {
	return "listings/" + url.PathEscape(listingID) + "/" + token + ext
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/bmp":  ".bmp",
}

// describe picks the key extension and content type for an upload, trusting
// the handle's extension when it names a known image type.
func describe(handle string, data []byte) (string, string) {
	ext := strings.ToLower(filepath.Ext(handlePath(handle)))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ct := mime.TypeByExtension(ext); strings.HasPrefix(ct, "image/") {
		return ext, strings.SplitN(ct, ";", 2)[0]
	}

	ct := http.DetectContentType(data)
	if e, ok := extByType[ct]; ok {
		return e, ct
	}
	return ".jpg", "image/jpeg"
}

func handlePath(handle string) string {
	if strings.HasPrefix(handle, "file://") {
		if u, err := url.Parse(handle); err == nil {
			return u.Path
		}
	}
	return handle
}

// ReadFile reads plain filesystem paths and file:// URLs.
func ReadFile(ctx context.Context, handle string, maxBytes int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i := strings.Index(handle, "://"); i > 0 && !strings.HasPrefix(handle, "file://") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, handle[:i])
	}
	data, err := filex.ReadLimited(handlePath(handle), maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", handle, err)
	}
	return data, nil
}
