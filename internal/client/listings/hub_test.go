package listings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DropsOldestWhenFull(t *testing.T) {
	h := newHub()
	sub := h.subscribe(2)

	h.publish(Event{Kind: EventChanged, ListingID: "1"})
	h.publish(Event{Kind: EventChanged, ListingID: "2"})
	h.publish(Event{Kind: EventChanged, ListingID: "3"})

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ListingID)
	assert.Equal(t, "3", got[1].ListingID)
}

func TestHub_CancelClosesAndStopsDelivery(t *testing.T) {
	h := newHub()
	a := h.subscribe(4)
	b := h.subscribe(4)

	a.Cancel()
	h.publish(Event{Kind: EventActivity, Op: OpRefresh, Loading: true})

	_, open := <-a.C
	assert.False(t, open)
	got := drain(b)
	require.Len(t, got, 1)
	assert.Equal(t, EventActivity, got[0].Kind)
	assert.Equal(t, "activity", got[0].Kind.String())
}
