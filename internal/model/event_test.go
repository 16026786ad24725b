package model

import (
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
)

func TestEventApply(t *testing.T) {
    org := uuid.New()
    ev := Event{ID: uuid.New(), Title: "Go Meetup", Location: "Hall 1", Capacity: 10, BookedSeats: 4, OrganizerID: &org}

    loc := time.FixedZone("CET", 3600)
    date := time.Date(2026, 5, 1, 19, 30, 0, 750_000_000, loc)
    title := "GopherCon"
    got := ev.Apply(EventPatch{Title: &title, Date: &date})

    assert.Equal(t, "GopherCon", got.Title)
    assert.Equal(t, time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC), got.Date)
    assert.Equal(t, "Hall 1", got.Location)
    assert.Equal(t, 4, got.BookedSeats)
    assert.Equal(t, &org, got.OrganizerID)
    assert.Equal(t, "Go Meetup", ev.Title)
}

func TestEventPatchEmpty(t *testing.T) {
    assert.True(t, EventPatch{}.Empty())
    n := 5
    assert.False(t, EventPatch{Capacity: &n}.Empty())
}
