package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rentsaathi/listingsync/internal/client/client"
	"github.com/rentsaathi/listingsync/internal/client/listings"
	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/repositories/drafts"
	"github.com/rentsaathi/listingsync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// listingService is the part of *listings.Repository the screens use.
type listingService interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, d *models.Draft) (models.Listing, error)
	Update(ctx context.Context, e models.Edit) (models.Listing, error)
	SetStatus(ctx context.Context, id string, s models.Status) (models.Listing, error)
	Toggle(ctx context.Context, id string) (models.Listing, error)
	Delete(ctx context.Context, id string) error
	Get(id string) (models.Listing, bool)
	Listings() []models.Listing
	Mine() []models.Listing
	PubliclyVisible() []models.Listing
	ByBhk(n int) []models.Listing
	Search(f listings.Filter) []models.Listing
	Subscribe(buffer int) *listings.Subscription
}

type sessionService interface {
	SignIn(ctx context.Context, token string) (string, error)
	SignOut(ctx context.Context) error
	Current() (string, bool)
}

type App struct {
	listings listingService
	session  sessionService
	drafts   drafts.Repository
	ping     func(ctx context.Context) error
	watcher  client.Watcher
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp builds the REPL on top of a wired client.
func NewApp(core *client.App) *App {
	return &App{
		listings: core.Listings,
		session:  core.Session,
		drafts:   core.Repos.Drafts,
		ping:     core.Backend.Documents.Ping,
		watcher:  core.Backend.Watcher,
		interval: core.Config.OnlineCheckInterval,
		timeout:  core.Config.RequestTimeout,
		log:      core.Log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run loads the feed, starts the background watchers and blocks in the
// REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.watchEvents(ctx)
	if stop := a.watchRemote(ctx); stop != nil {
		defer stop()
	}
	if err := a.Refresh(ctx); err == nil {
		a.setMode(ctx, ModeOnline)
	}
	go a.StartOnlineStatusWatcher(ctx, a.interval)

	fmt.Fprintln(a.out, "RentSaathi listings (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.Current()
	return ok
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
	return changed
}

func (a *App) status() string {
	s := ""
	if id, ok := a.session.Current(); ok {
		s = id + " "
	}
	s += string(a.currentMode())
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}
