// Package listings holds the canonical set of listings known to the client.
// Every read and write against the document store goes through Repository;
// screens observe it through snapshots and subscriptions.
package listings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rentsaathi/listingsync/internal/client/events"
	"github.com/rentsaathi/listingsync/internal/client/ingest"
	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/remote"
	"github.com/rentsaathi/listingsync/internal/logging"
)

// Identity is the session collaborator.
type Identity interface {
	// Ready is closed once identity determination has completed.
	Ready() <-chan struct{}
	Current() (string, bool)
}

type Ingester interface {
	Ingest(ctx context.Context, listingID string, images []string) (ingest.Batch, error)
}

type Options struct {
	Logger    logging.Logger
	Publisher events.Publisher
	NewID     func() string
}

type overlayKind int

const (
	overlayPending overlayKind = iota
	overlayConfirmed
	overlayCreated
	overlayDeleted
)

// overlay pins the local result of a write until a refresh proves the store
// has caught up with it. since is the number of refreshes started before
// the write was confirmed.
type overlay struct {
	kind    overlayKind
	listing models.Listing
	since   uint64
}

type Repository struct {
	docs     remote.DocumentStore
	images   Ingester
	identity Identity
	pub      events.Publisher
	log      logging.Logger
	newID    func() string

	// writeMu serializes writes so each confirm-before-merge completes
	// before the next write reads the canonical set.
	writeMu sync.Mutex

	mu       sync.RWMutex
	items    []models.Listing
	index    map[string]int
	overlays map[string]overlay
	started  uint64
	applied  uint64
	activity map[Op]int

	hub *hub
}

func New(docs remote.DocumentStore, images Ingester, identity Identity, opts Options) *Repository {
	r := &Repository{
		docs:     docs,
		images:   images,
		identity: identity,
		pub:      opts.Publisher,
		log:      opts.Logger,
		newID:    opts.NewID,
		index:    make(map[string]int),
		overlays: make(map[string]overlay),
		activity: make(map[Op]int),
		hub:      newHub(),
	}
	if r.pub == nil {
		r.pub = events.Nop{}
	}
	if r.log == nil {
		r.log = logging.Nop()
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// Subscribe returns a subscription buffering up to buffer events.
func (r *Repository) Subscribe(buffer int) *Subscription {
	return r.hub.subscribe(buffer)
}

// Loading reports whether an op is in flight.
func (r *Repository) Loading(op Op) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activity[op] > 0
}

func (r *Repository) begin(op Op) func() {
	r.mu.Lock()
	r.activity[op]++
	first := r.activity[op] == 1
	r.mu.Unlock()
	if first {
		r.hub.publish(Event{Kind: EventActivity, Op: op, Loading: true})
	}

	return func() {
		r.mu.Lock()
		r.activity[op]--
		last := r.activity[op] == 0
		r.mu.Unlock()
		if last {
			r.hub.publish(Event{Kind: EventActivity, Op: op, Loading: false})
		}
	}
}

// Listings returns a snapshot of the canonical set in creation order.
func (r *Repository) Listings() []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return selectWhere(r.items, func(models.Listing) bool { return true })
}

func (r *Repository) Get(id string) (models.Listing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return models.Listing{}, false
	}
	return r.items[i].Clone(), true
}

func (r *Repository) OwnedBy(identity string) []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return OwnedBy(r.items, identity)
}

// Mine returns the listings of the signed-in identity, or nothing before
// identity determination has completed.
func (r *Repository) Mine() []models.Listing {
	if r.identity == nil {
		return []models.Listing{}
	}
	select {
	case <-r.identity.Ready():
	default:
		return []models.Listing{}
	}
	id, _ := r.identity.Current()
	return r.OwnedBy(id)
}

func (r *Repository) PubliclyVisible() []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return PubliclyVisible(r.items)
}

func (r *Repository) ByBhk(n int) []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ByBhk(r.items, n)
}

// Search applies f to the public feed.
func (r *Repository) Search(f Filter) []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return f.Apply(PubliclyVisible(r.items))
}

// Refresh replaces the canonical set with the store's records. When
// refreshes overlap, the one started last wins and older results are
// discarded. On failure the previous set is kept and a *SyncError is both
// returned and published.
func (r *Repository) Refresh(ctx context.Context) error {
	defer r.begin(OpRefresh)()

	r.mu.Lock()
	r.started++
	gen := r.started
	r.mu.Unlock()

	docs, err := r.docs.List(ctx)
	if err != nil {
		serr := &SyncError{Retryable: true, Cause: err}
		r.log.Warn(ctx, "refresh failed", "op", OpRefresh, "generation", gen, "error", err)
		r.hub.publish(Event{Kind: EventSyncFailed, Op: OpRefresh, Err: serr})
		return serr
	}

	fetched := make([]models.Listing, 0, len(docs))
	for _, d := range docs {
		fetched = append(fetched, Normalize(d))
	}

	r.mu.Lock()
	if gen <= r.applied {
		r.mu.Unlock()
		r.log.Debug(ctx, "refresh superseded", "op", OpRefresh, "generation", gen)
		return nil
	}
	r.applied = gen
	r.applyLocked(fetched, gen)
	n := len(r.items)
	r.mu.Unlock()

	r.log.Debug(ctx, "refresh applied", "op", OpRefresh, "generation", gen, "count", n)
	r.hub.publish(Event{Kind: EventChanged, Op: OpRefresh})
	return nil
}

func (r *Repository) applyLocked(fetched []models.Listing, gen uint64) {
	next := make([]models.Listing, 0, len(fetched))
	seen := make(map[string]struct{}, len(fetched))

	for _, l := range fetched {
		if l.ID == "" {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}

		ov, ok := r.overlays[l.ID]
		if !ok {
			next = append(next, l)
			continue
		}
		switch ov.kind {
		case overlayPending:
			next = append(next, ov.listing.Clone())
		case overlayDeleted:
			// stale copy of a deleted listing
		default:
			if !l.UpdatedAt.Before(ov.listing.UpdatedAt) {
				delete(r.overlays, l.ID)
				next = append(next, l)
			} else {
				next = append(next, ov.listing.Clone())
			}
		}
	}

	var missing []models.Listing
	for id, ov := range r.overlays {
		if _, ok := seen[id]; ok {
			continue
		}
		switch ov.kind {
		case overlayDeleted:
			delete(r.overlays, id)
		case overlayCreated, overlayConfirmed:
			if gen > ov.since {
				// listed after the write and still absent: gone remotely
				delete(r.overlays, id)
				continue
			}
			missing = append(missing, ov.listing.Clone())
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if !missing[i].CreatedAt.Equal(missing[j].CreatedAt) {
			return missing[i].CreatedAt.Before(missing[j].CreatedAt)
		}
		return missing[i].ID < missing[j].ID
	})

	r.items = append(next, missing...)
	r.reindexLocked()
}

func (r *Repository) reindexLocked() {
	clear(r.index)
	for i, l := range r.items {
		r.index[l.ID] = i
	}
}

func (r *Repository) upsertLocked(l models.Listing) {
	if i, ok := r.index[l.ID]; ok {
		r.items[i] = l
		return
	}
	r.items = append(r.items, l)
	r.index[l.ID] = len(r.items) - 1
}

func (r *Repository) removeLocked(id string) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	r.reindexLocked()
}

// Create persists draft as a new listing owned by the signed-in identity.
// Local images are ingested first and draft.Images is updated with every
// reference obtained, so a retry only uploads what failed. Nothing is
// written unless every image is durable. The canonical set and subscribers
// learn about the listing only after the store confirmed the insert; then
// draft.TempID is cleared.
func (r *Repository) Create(ctx context.Context, draft *models.Draft) (models.Listing, error) {
	defer r.begin(OpCreate)()

	if draft == nil {
		return models.Listing{}, models.ErrInvalidDraft
	}
	if err := draft.Validate(); err != nil {
		return models.Listing{}, err
	}
	owner, err := r.owner(ctx)
	if err != nil {
		return models.Listing{}, err
	}
	log := r.log.With("op", OpCreate, "draft_id", draft.TempID)

	if len(draft.PendingImages()) > 0 {
		batch, err := r.images.Ingest(ctx, draft.TempID, draft.Images)
		draft.Images = batch.Resolved()
		if err != nil {
			log.Warn(ctx, "create blocked by image ingestion", "error", err)
			return models.Listing{}, err
		}
	}
	if !models.AllDurable(draft.Images) {
		return models.Listing{}, fmt.Errorf("%w: images are not all durable references", models.ErrInvalidDraft)
	}

	l := draft.ToListing(r.newID(), owner)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	stored, err := r.docs.Insert(ctx, ToDocument(l))
	if err != nil {
		log.Error(ctx, "create failed", "error", err)
		return models.Listing{}, persistenceErr(OpCreate, draft.TempID, false, err)
	}
	created := Normalize(stored)
	if created.ID == "" {
		created.ID = l.ID
	}

	r.mu.Lock()
	r.upsertLocked(created.Clone())
	r.overlays[created.ID] = overlay{kind: overlayCreated, listing: created.Clone(), since: r.started}
	r.mu.Unlock()

	draft.TempID = ""
	log.Info(ctx, "listing created", "listing_id", created.ID)
	r.changed(ctx, OpCreate, created, events.KindCreated)
	return created.Clone(), nil
}

// Update applies e to a listing of the signed-in identity. New images are
// ingested and appended after the persisted ones; images are only dropped
// when named in e.RemoveImages. If some images failed to ingest, the rest
// of the edit is still written and the *ingest.BatchError is returned with
// the updated listing.
func (r *Repository) Update(ctx context.Context, e models.Edit) (models.Listing, error) {
	if e.Status != nil {
		if _, ok := models.ParseStatus(string(*e.Status)); !ok {
			return models.Listing{}, fmt.Errorf("invalid status %q", *e.Status)
		}
	}
	defer r.begin(OpUpdate)()

	current, err := r.authorize(ctx, e.ID)
	if err != nil {
		return models.Listing{}, err
	}

	var (
		added     []string
		ingestErr error
	)
	if len(e.AddImages) > 0 {
		batch, err := r.images.Ingest(ctx, e.ID, e.AddImages)
		var be *ingest.BatchError
		if err != nil && !errors.As(err, &be) {
			return current, err
		}
		added, ingestErr = batch.Refs(), err
	}

	updated, err := r.mutate(ctx, OpUpdate, e.ID, func(before models.Listing) models.Listing {
		return e.Apply(before, added)
	})
	if err != nil {
		return updated, err
	}
	return updated, ingestErr
}

// mutate writes change(current) for listing id. The new value is visible
// immediately; it is replaced by the stored record on success and reverted
// on failure.
func (r *Repository) mutate(ctx context.Context, op Op, id string, change func(models.Listing) models.Listing) (models.Listing, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	i, ok := r.index[id]
	if !ok {
		r.mu.Unlock()
		return models.Listing{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	before := r.items[i].Clone()
	next := change(before.Clone())
	next.ID, next.OwnerID = before.ID, before.OwnerID
	next.CreatedAt, next.UpdatedAt = before.CreatedAt, before.UpdatedAt

	set := diff(before, next)
	if len(set) == 0 {
		r.mu.Unlock()
		return before, nil
	}
	prev, hadPrev := r.overlays[id]
	r.items[i] = next.Clone()
	r.overlays[id] = overlay{kind: overlayPending, listing: next.Clone()}
	r.mu.Unlock()
	r.hub.publish(Event{Kind: EventChanged, Op: op, ListingID: id})

	log := r.log.With("op", op, "listing_id", id)
	stored, err := r.docs.Update(ctx, id, set)
	if err != nil {
		r.mu.Lock()
		if j, ok := r.index[id]; ok {
			r.items[j] = before.Clone()
		}
		if hadPrev {
			r.overlays[id] = prev
		} else {
			delete(r.overlays, id)
		}
		r.mu.Unlock()
		r.hub.publish(Event{Kind: EventChanged, Op: op, ListingID: id})

		log.Error(ctx, "write failed, local change reverted", "error", err)
		return before, persistenceErr(op, id, true, err)
	}

	confirmed := Normalize(stored)
	if confirmed.ID == "" {
		confirmed.ID = id
	}
	r.mu.Lock()
	if j, ok := r.index[id]; ok {
		r.items[j] = confirmed.Clone()
	}
	r.overlays[id] = overlay{kind: overlayConfirmed, listing: confirmed.Clone(), since: r.started}
	r.mu.Unlock()

	log.Info(ctx, "listing updated", "fields", len(set))
	r.changed(ctx, op, confirmed, events.KindUpdated)
	return confirmed.Clone(), nil
}

// Delete removes a listing of the signed-in identity from the store and
// then from the canonical set. A failed remote delete leaves the listing in
// place and returns a *PersistenceError; there is no automatic retry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	defer r.begin(OpDelete)()

	current, err := r.authorize(ctx, id)
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.docs.Delete(ctx, id); err != nil && !errors.Is(err, remote.ErrNotFound) {
		r.log.Error(ctx, "delete failed", "op", OpDelete, "listing_id", id, "error", err)
		return persistenceErr(OpDelete, id, false, err)
	}

	r.mu.Lock()
	r.removeLocked(id)
	r.overlays[id] = overlay{kind: overlayDeleted, since: r.started}
	r.mu.Unlock()

	r.log.Info(ctx, "listing deleted", "op", OpDelete, "listing_id", id)
	r.changed(ctx, OpDelete, current, events.KindDeleted)
	return nil
}

// owner waits for identity determination, bounded by ctx, and returns the
// signed-in identity.
func (r *Repository) owner(ctx context.Context) (string, error) {
	if r.identity == nil {
		return "", ErrIdentityUnavailable
	}
	select {
	case <-r.identity.Ready():
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrIdentityUnavailable, ctx.Err())
	}
	id, ok := r.identity.Current()
	if !ok || id == "" {
		return "", ErrIdentityUnavailable
	}
	return id, nil
}

func (r *Repository) authorize(ctx context.Context, id string) (models.Listing, error) {
	owner, err := r.owner(ctx)
	if err != nil {
		return models.Listing{}, err
	}
	l, ok := r.Get(id)
	if !ok {
		return models.Listing{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if l.OwnerID != owner {
		return models.Listing{}, ErrForbidden
	}
	return l, nil
}

func (r *Repository) changed(ctx context.Context, op Op, l models.Listing, kind events.Kind) {
	r.hub.publish(Event{Kind: EventChanged, Op: op, ListingID: l.ID})

	c := events.Change{
		Kind:      kind,
		ListingID: l.ID,
		OwnerID:   l.OwnerID,
		Status:    string(l.Status),
		At:        l.UpdatedAt,
	}
	if err := r.pub.Publish(ctx, c); err != nil {
		r.log.Warn(ctx, "change event not published", "op", op, "listing_id", l.ID, "error", err)
	}
}
