package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rentsaathi/listingsync/internal/client/config"
	"github.com/rentsaathi/listingsync/internal/client/ingest"
	"github.com/rentsaathi/listingsync/internal/client/listings"
	"github.com/rentsaathi/listingsync/internal/client/session"
	"github.com/rentsaathi/listingsync/internal/filex"
	"github.com/rentsaathi/listingsync/internal/logging"
)

// App is the fully wired client: local storage, session, remote backend and
// the listing repository on top of them.
type App struct {
	Config   *config.Config
	Log      logging.Logger
	DB       *sql.DB
	Repos    *Repositories
	Session  *session.Manager
	Backend  *Backend
	Images   *ingest.Pipeline
	Listings *listings.Repository
}

// NewApp opens the local database, connects the backend and restores the
// persisted session. The session is restored before NewApp returns, so the
// identity is determined for every consumer.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	if cfg.LocalDBPath != ":memory:" {
		if _, err := filex.EnsureDir(filepath.Dir(cfg.LocalDBPath)); err != nil {
			return nil, fmt.Errorf("local data dir: %w", err)
		}
	}
	db, err := InitDatabase(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local database: %w", err)
	}

	backend, err := Connect(ctx, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sess := session.NewManager(db, cfg.SessionSecret, log.With("component", "session"))
	images := ingest.New(backend.Objects, ingest.Options{
		Concurrency: cfg.UploadConcurrency,
		Logger:      log.With("component", "ingest"),
	})
	repo := listings.New(backend.Documents, images, sess, listings.Options{
		Logger:    log.With("component", "listings"),
		Publisher: backend.Events,
	})

	app := &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Repos:    NewRepositories(db),
		Session:  sess,
		Backend:  backend,
		Images:   images,
		Listings: repo,
	}

	if err := sess.Restore(ctx); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Backend.Close(ctx), a.DB.Close())
}
