package cli

import (
	"context"
	"time"

	"github.com/rentsaathi/listingsync/internal/client/events"
	"github.com/rentsaathi/listingsync/internal/client/listings"
)

const pingTimeout = 3 * time.Second

// StartOnlineStatusWatcher pings the document store every interval. Coming
// back online triggers a refresh of the feed.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	if a.setMode(ctx, ModeOnline) {
		refreshCtx, cancel := a.withTimeout(ctx)
		defer cancel()
		if err := a.listings.Refresh(refreshCtx); err != nil {
			a.log.Warn(ctx, "refresh after reconnect failed", "error", err)
		}
	}
}

// watchEvents reports background sync failures until ctx is done.
func (a *App) watchEvents(ctx context.Context) {
	sub := a.listings.Subscribe(16)
	go func() {
		defer sub.Cancel()
		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.Kind == listings.EventSyncFailed {
					a.log.Warn(ctx, "listings out of date", "op", ev.Op, "error", ev.Err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// watchRemote refreshes the feed when another client changes a listing.
func (a *App) watchRemote(ctx context.Context) func() {
	if a.watcher == nil {
		return nil
	}
	changes := make(chan events.Change, 1)
	stop, err := a.watcher.Watch(func(c events.Change) {
		select {
		case changes <- c:
		default:
		}
	})
	if err != nil {
		a.log.Warn(ctx, "change feed unavailable", "error", err)
		return nil
	}

	go func() {
		for {
			select {
			case c := <-changes:
				a.log.Debug(ctx, "remote change", "kind", c.Kind, "listing_id", c.ListingID)
				refreshCtx, cancel := a.withTimeout(ctx)
				_ = a.listings.Refresh(refreshCtx)
				cancel()
			case <-ctx.Done():
				return
			}
		}
	}()
	return stop
}
