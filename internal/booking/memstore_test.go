package booking_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pranavOffl/EventBookingSystem/internal/booking"
	"github.com/pranavOffl/EventBookingSystem/internal/model"
)

// memStore is a transactional in-memory Store.  Row locks are one-slot
// channels, so a second transaction locking the same row blocks until the
// holder commits or rolls back, or until its own context is done.
type memStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]model.Event
	bookings map[uuid.UUID]model.Booking
	users    map[uuid.UUID]model.User
	locks    map[uuid.UUID]chan struct{}

	failInsert error
	failCommit error
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[uuid.UUID]model.Event{},
		bookings: map[uuid.UUID]model.Booking{},
		users:    map[uuid.UUID]model.User{},
		locks:    map[uuid.UUID]chan struct{}{},
	}
}

func (s *memStore) addEvent(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
}

func (s *memStore) addUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) event(id uuid.UUID) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *memStore) confirmedCount(eventID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.EventID == eventID && b.Confirmed() {
			n++
		}
	}
	return n
}

func (s *memStore) rowsFor(userID, eventID uuid.UUID) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.UserID == userID && b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out
}

func (s *memStore) lockChan(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

func (s *memStore) BeginTx(ctx context.Context) (booking.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{
		s:        s,
		held:     map[uuid.UUID]bool{},
		events:   map[uuid.UUID]model.Event{},
		bookings: map[uuid.UUID]model.Booking{},
		deleted:  map[uuid.UUID]bool{},
	}, nil
}

func (s *memStore) ListUserBookings(_ context.Context, userID uuid.UUID) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
	return out, nil
}

func (s *memStore) ListAttendees(_ context.Context, eventID uuid.UUID) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, b := range s.bookings {
		if b.EventID == eventID && b.Confirmed() {
			if u, ok := s.users[b.UserID]; ok {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (s *memStore) GetOrganizer(_ context.Context, eventID uuid.UUID) (*uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, false, nil
	}
	return ev.OrganizerID, true, nil
}

type memTx struct {
	s        *memStore
	held     map[uuid.UUID]bool
	events   map[uuid.UUID]model.Event
	bookings map[uuid.UUID]model.Booking
	deleted  map[uuid.UUID]bool
	done     bool
}

var errTxDone = errors.New("transaction already finished")

func (t *memTx) lock(ctx context.Context, id uuid.UUID) error {
	if t.held[id] {
		return nil
	}
	ch := t.s.lockChan(id)
	select {
	case ch <- struct{}{}:
		t.held[id] = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) release() {
	for id := range t.held {
		<-t.s.lockChan(id)
	}
	t.held = map[uuid.UUID]bool{}
	t.done = true
}

func (t *memTx) readEvent(id uuid.UUID) (*model.Event, bool) {
	if ev, ok := t.events[id]; ok {
		return &ev, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ev, ok := t.s.events[id]
	return &ev, ok
}

func (t *memTx) readBooking(id uuid.UUID) (*model.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return &b, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[id]
	return &b, ok
}

func (t *memTx) LockUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	if t.done {
		return false, errTxDone
	}
	if err := t.lock(ctx, userID); err != nil {
		return false, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, ok := t.s.users[userID]
	return ok && !t.deleted[userID], nil
}

func (t *memTx) DeleteUser(_ context.Context, userID uuid.UUID) error {
	if t.done {
		return errTxDone
	}
	if !t.held[userID] {
		return errors.New("user deleted without holding its lock")
	}
	t.deleted[userID] = true
	return nil
}

func (t *memTx) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	if t.done {
		return nil, errTxDone
	}
	if err := t.lock(ctx, eventID); err != nil {
		return nil, err
	}
	ev, ok := t.readEvent(eventID)
	if !ok {
		return nil, nil
	}
	return ev, nil
}

func (t *memTx) GetBooking(_ context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	if t.done {
		return nil, errTxDone
	}
	b, ok := t.readBooking(bookingID)
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	if t.done {
		return nil, errTxDone
	}
	if err := t.lock(ctx, bookingID); err != nil {
		return nil, err
	}
	return t.GetBooking(ctx, bookingID)
}

func (t *memTx) GetBookingByUserAndEvent(_ context.Context, userID, eventID uuid.UUID) (*model.Booking, error) {
	if t.done {
		return nil, errTxDone
	}
	for _, b := range t.bookings {
		if b.UserID == userID && b.EventID == eventID {
			return &b, nil
		}
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, b := range t.s.bookings {
		if b.UserID == userID && b.EventID == eventID {
			return &b, nil
		}
	}
	return nil, nil
}

func (t *memTx) ListConfirmedByUser(_ context.Context, userID uuid.UUID) ([]model.Booking, error) {
	if t.done {
		return nil, errTxDone
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []model.Booking
	for _, b := range t.s.bookings {
		if b.UserID == userID && b.Confirmed() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID.String() < out[j].EventID.String() })
	return out, nil
}

func (t *memTx) InsertBooking(_ context.Context, b model.Booking) error {
	if t.done {
		return errTxDone
	}
	if t.s.failInsert != nil {
		return t.s.failInsert
	}
	t.bookings[b.ID] = b
	return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b model.Booking) error {
	if t.done {
		return errTxDone
	}
	t.bookings[b.ID] = b
	return nil
}

func (t *memTx) UpdateEvent(_ context.Context, e model.Event) error {
	if t.done {
		return errTxDone
	}
	if !t.held[e.ID] {
		return errors.New("event updated without holding its lock")
	}
	t.events[e.ID] = e
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errTxDone
	}
	if t.s.failCommit != nil {
		t.release()
		return t.s.failCommit
	}
	t.s.mu.Lock()
	for id, ev := range t.events {
		t.s.events[id] = ev
	}
	for id, b := range t.bookings {
		t.s.bookings[id] = b
	}
	for userID := range t.deleted {
		delete(t.s.users, userID)
		for id, b := range t.s.bookings {
			if b.UserID == userID {
				delete(t.s.bookings, id)
			}
		}
	}
	t.s.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.release()
	return nil
}
