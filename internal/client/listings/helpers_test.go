package listings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentsaathi/listingsync/internal/client/events"
	"github.com/rentsaathi/listingsync/internal/client/ingest"
	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/remote"
	"github.com/rentsaathi/listingsync/internal/client/remote/memstore"
)

type fakeIdentity struct {
	ready chan struct{}
	mu    sync.Mutex
	id    string
}

func signedIn(id string) *fakeIdentity {
	f := &fakeIdentity{ready: make(chan struct{}), id: id}
	close(f.ready)
	return f
}

func undetermined() *fakeIdentity {
	return &fakeIdentity{ready: make(chan struct{})}
}

func (f *fakeIdentity) Ready() <-chan struct{} { return f.ready }

func (f *fakeIdentity) Current() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id, f.id != ""
}

func (f *fakeIdentity) resolve(id string) {
	f.mu.Lock()
	f.id = id
	f.mu.Unlock()
	close(f.ready)
}

func (f *fakeIdentity) switchTo(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = id
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Kind
	}
	return out
}

// deviceReader serves any /device/ handle; handles containing "broken"
// fail to read.
func deviceReader(_ context.Context, handle string, _ int64) ([]byte, error) {
	if strings.Contains(handle, "broken") {
		return nil, errors.New("picker handle expired")
	}
	return []byte("jpeg:" + handle), nil
}

type testEnv struct {
	docs     *memstore.Documents
	objects  *memstore.Objects
	identity *fakeIdentity
	pub      *recordingPublisher
	repo     *Repository
}

func newEnv(t *testing.T, identity *fakeIdentity) *testEnv {
	t.Helper()
	docs := memstore.NewDocuments()
	objects := memstore.NewObjects("")
	pub := &recordingPublisher{}
	pipeline := ingest.New(objects, ingest.Options{Read: deviceReader})
	return &testEnv{
		docs:     docs,
		objects:  objects,
		identity: identity,
		pub:      pub,
		repo:     New(docs, pipeline, identity, Options{Publisher: pub}),
	}
}

func (e *testEnv) create(t *testing.T, title, category, flatType string, images ...string) models.Listing {
	t.Helper()
	d := models.NewDraft()
	d.Title = title
	d.Category = models.Category(category)
	d.FlatType = flatType
	d.Price = 12000
	d.City = "Kathmandu"
	d.Locality = "Baneshwor"
	d.Images = images
	l, err := e.repo.Create(context.Background(), d)
	require.NoError(t, err)
	return l
}

// gate blocks one store operation until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return nil
	}
	close(g.entered)
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("store operation never started")
	}
}

// blockOn installs a fault blocking the first op of the given kind.
func blockOn(docs *memstore.Documents, op memstore.Op, fail error) *gate {
	g := newGate()
	docs.SetFault(func(ctx context.Context, got memstore.Op, _ string) error {
		if got != op {
			return nil
		}
		if err := g.wait(ctx); err != nil {
			return err
		}
		return fail
	})
	return g
}

func failOn(docs *memstore.Documents, op memstore.Op, err error) {
	docs.SetFault(func(_ context.Context, got memstore.Op, _ string) error {
		if got == op {
			return err
		}
		return nil
	})
}

// staleLister returns a snapshot taken before it blocks, like a slow read
// that raced with later writes.
type staleLister struct {
	*memstore.Documents
	gate *gate
}

func (s *staleLister) List(ctx context.Context) ([]remote.Document, error) {
	snapshot, err := s.Documents.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.wait(ctx); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func drain(sub *Subscription) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func changedOps(evs []Event) []Op {
	var out []Op
	for _, ev := range evs {
		if ev.Kind == EventChanged {
			out = append(out, ev.Op)
		}
	}
	return out
}
