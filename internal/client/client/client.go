package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rentsaathi/listingsync/internal/client/config"
	"github.com/rentsaathi/listingsync/internal/client/events"
	"github.com/rentsaathi/listingsync/internal/client/remote"
	"github.com/rentsaathi/listingsync/internal/client/remote/memstore"
	"github.com/rentsaathi/listingsync/internal/client/remote/miniostore"
	"github.com/rentsaathi/listingsync/internal/client/remote/mongostore"
	"github.com/rentsaathi/listingsync/internal/client/remote/pgstore"
	"github.com/rentsaathi/listingsync/internal/client/remote/s3store"
	"github.com/rentsaathi/listingsync/internal/logging"
)

// Watcher delivers changes made by other clients.
type Watcher interface {
	Watch(fn func(events.Change)) (func(), error)
}

// Backend is the set of remote collaborators selected by configuration.
type Backend struct {
	Documents remote.DocumentStore
	Objects   remote.ObjectStore
	Events    events.Publisher
	// Watcher is nil when no event bus is configured.
	Watcher Watcher

	closers []func(context.Context) error
}

// Connect builds the document store, object store and event publisher named
// by cfg. Anything already opened is closed again when a later step fails.
func Connect(ctx context.Context, cfg *config.Config, log logging.Logger) (_ *Backend, err error) {
	if log == nil {
		log = logging.Nop()
	}
	b := &Backend{Events: events.Nop{}}
	defer func() {
		if err != nil {
			_ = b.Close(context.Background())
		}
	}()

	if b.Documents, err = b.connectDocuments(ctx, cfg); err != nil {
		return nil, err
	}
	if b.Objects, err = b.connectObjects(ctx, cfg, log); err != nil {
		return nil, err
	}

	if cfg.NATSURL != "" {
		bus, err := events.ConnectNATS(cfg.NATSURL, uuid.NewString(), log)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { bus.Close(); return nil })
		b.Events = bus
		b.Watcher = bus
	}

	log.Info(ctx, "backend connected",
		"documents", cfg.DocumentDriver, "objects", cfg.ObjectDriver, "events", cfg.NATSURL != "")
	return b, nil
}

func (b *Backend) connectDocuments(ctx context.Context, cfg *config.Config) (remote.DocumentStore, error) {
	switch cfg.DocumentDriver {
	case config.DocumentMemory, "":
		return memstore.NewDocuments(), nil
	case config.DocumentMongo:
		s, err := mongostore.Connect(ctx, mongostore.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Collection:     cfg.MongoCollection,
			ConnectTimeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		return s, nil
	case config.DocumentPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres dsn", ErrMissingConfig)
		}
		s, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return s.Close() })
		return s, nil
	default:
		return nil, fmt.Errorf("%w: document store %q", ErrUnknownDriver, cfg.DocumentDriver)
	}
}

func (b *Backend) connectObjects(ctx context.Context, cfg *config.Config, log logging.Logger) (remote.ObjectStore, error) {
	switch cfg.ObjectDriver {
	case config.ObjectMemory, "":
		base := cfg.PublicBaseURL
		if base == "" {
			base = memstore.DefaultObjectBaseURL
		}
		return memstore.NewObjects(base), nil
	case config.ObjectS3:
		return s3store.New(ctx, s3store.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	case config.ObjectMinio:
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("%w: minio endpoint", ErrMissingConfig)
		}
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			UseSSL:        cfg.S3UseSSL,
			PublicBaseURL: cfg.PublicBaseURL,
		}, log)
	default:
		return nil, fmt.Errorf("%w: object store %q", ErrUnknownDriver, cfg.ObjectDriver)
	}
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
