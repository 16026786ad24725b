package service

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
    "github.com/pranavOffl/EventBookingSystem/internal/repository"
)

var (
    now       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
    clock     = func() time.Time { return now }
    eventCols = []string{"id", "title", "description", "date", "location", "capacity", "booked_seats", "organizer_id", "created_at", "updated_at"}
)

func q(s string) string { return regexp.QuoteMeta(s) }

type fixture struct {
    db     *sql.DB
    mock   sqlmock.Sqlmock
    events *EventService
    acct   *AccountService
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    log, _ := test.NewNullLogger()
    store := repository.NewStore(db)
    eventRepo := repository.NewEventRepo(db)
    mgr := booking.NewManager(store, booking.WithClock(clock), booking.WithLogger(log))
    return &fixture{
        db:     db,
        mock:   mock,
        events: NewEventService(eventRepo, store, mgr, clock),
        acct:   NewAccountService(repository.NewUserRepo(db), repository.NewTokenRepo(db), eventRepo, mgr, 4, log),
    }
}

func eventRow(id, org uuid.UUID, capacity, booked int) *sqlmock.Rows {
    return sqlmock.NewRows(eventCols).AddRow(id.String(), "Go Meetup", "talks", now.Add(48*time.Hour), "Hall 1", capacity, booked, org.String(), now, now)
}

func organizer(id uuid.UUID) booking.Actor { return booking.Actor{UserID: id, Role: model.RoleOrganizer} }

func TestCreateEvent(t *testing.T) {
    f := newFixture(t)
    org := uuid.New()
    in := NewEvent{Title: " Go Meetup ", Description: "talks", Date: now.Add(24 * time.Hour), Location: "Hall 1", Capacity: 50}

    f.mock.ExpectQuery(q("SELECT EXISTS(")).
        WithArgs(org, "Go Meetup", now.Add(24*time.Hour), "Hall 1").
        WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
    f.mock.ExpectExec(q("INSERT INTO events")).WillReturnResult(sqlmock.NewResult(0, 1))

    ev, err := f.events.Create(context.Background(), organizer(org), in)
    require.NoError(t, err)
    assert.Equal(t, "Go Meetup", ev.Title)
    assert.Zero(t, ev.BookedSeats)
    require.NotNil(t, ev.OrganizerID)
    assert.Equal(t, org, *ev.OrganizerID)
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateEvent_Duplicate(t *testing.T) {
    f := newFixture(t)
    f.mock.ExpectQuery(q("SELECT EXISTS(")).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

    _, err := f.events.Create(context.Background(), organizer(uuid.New()), NewEvent{Title: "A", Location: "B", Date: now.Add(time.Hour), Capacity: 1})
    assert.Equal(t, booking.KindConflict, booking.KindOf(err))
    assert.ErrorIs(t, err, ErrDuplicateEvent)
}

func TestCreateEvent_Invalid(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    actor := organizer(uuid.New())

    _, err := f.events.Create(ctx, actor, NewEvent{Title: "A", Location: "B", Date: now, Capacity: 1})
    assert.Equal(t, booking.KindInvalid, booking.KindOf(err))
    _, err = f.events.Create(ctx, actor, NewEvent{Title: "A", Location: "B", Date: now.Add(time.Hour), Capacity: 0})
    assert.Equal(t, booking.KindInvalid, booking.KindOf(err))
    _, err = f.events.Create(ctx, actor, NewEvent{Title: " ", Location: "B", Date: now.Add(time.Hour), Capacity: 3})
    assert.Equal(t, booking.KindInvalid, booking.KindOf(err))
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListEvents_ClampsLimit(t *testing.T) {
    f := newFixture(t)
    f.mock.ExpectQuery(q("WHERE date > ? ORDER BY date, id LIMIT ? OFFSET ?")).
        WithArgs(now, MaxListLimit, 0).
        WillReturnRows(sqlmock.NewRows(eventCols))

    list, err := f.events.List(context.Background(), ListParams{UpcomingOnly: true, Skip: -3, Limit: 1000})
    require.NoError(t, err)
    assert.Empty(t, list)
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetEvent_NotFound(t *testing.T) {
    f := newFixture(t)
    f.mock.ExpectQuery(q("FROM events WHERE id = ?")).WillReturnRows(sqlmock.NewRows(eventCols))

    _, err := f.events.Get(context.Background(), uuid.New())
    assert.ErrorIs(t, err, booking.ErrEventNotFound)
}

func TestUpdateEvent_CapacityBelowBooked(t *testing.T) {
    f := newFixture(t)
    id, org := uuid.New(), uuid.New()
    capacity := 3

    f.mock.ExpectBegin()
    f.mock.ExpectQuery(q("FROM events WHERE id = ? FOR UPDATE")).WithArgs(id).WillReturnRows(eventRow(id, org, 10, 5))
    f.mock.ExpectRollback()

    _, err := f.events.Update(context.Background(), id, organizer(org), model.EventPatch{Capacity: &capacity})
    assert.Equal(t, booking.KindConflict, booking.KindOf(err))
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateEvent_NotOwner(t *testing.T) {
    f := newFixture(t)
    id := uuid.New()
    title := "New"

    f.mock.ExpectBegin()
    f.mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(eventRow(id, uuid.New(), 10, 0))
    f.mock.ExpectRollback()

    _, err := f.events.Update(context.Background(), id, organizer(uuid.New()), model.EventPatch{Title: &title})
    assert.Equal(t, booking.KindForbidden, booking.KindOf(err))
}

func TestUpdateEvent_AdminRaisesCapacity(t *testing.T) {
    f := newFixture(t)
    id := uuid.New()
    capacity := 20

    f.mock.ExpectBegin()
    f.mock.ExpectQuery(q("FOR UPDATE")).WithArgs(id).WillReturnRows(eventRow(id, uuid.New(), 10, 7))
    f.mock.ExpectExec(q("UPDATE events SET")).
        WithArgs("Go Meetup", "talks", sqlmock.AnyArg(), "Hall 1", 20, 7, id).
        WillReturnResult(sqlmock.NewResult(0, 1))
    f.mock.ExpectCommit()

    ev, err := f.events.Update(context.Background(), id, booking.Actor{UserID: uuid.New(), Role: model.RoleAdmin}, model.EventPatch{Capacity: &capacity})
    require.NoError(t, err)
    assert.Equal(t, 20, ev.Capacity)
    assert.Equal(t, 7, ev.BookedSeats)
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteEvent(t *testing.T) {
    f := newFixture(t)
    id, org := uuid.New(), uuid.New()

    f.mock.ExpectQuery(q("SELECT organizer_id FROM events")).WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"organizer_id"}).AddRow(org.String()))
    f.mock.ExpectExec(q("DELETE FROM events WHERE id = ?")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

    require.NoError(t, f.events.Delete(context.Background(), id, organizer(org)))
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGuestList(t *testing.T) {
    f := newFixture(t)
    id, org := uuid.New(), uuid.New()
    orgRow := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"organizer_id"}).AddRow(org.String()) }

    f.mock.ExpectQuery(q("SELECT organizer_id FROM events")).WillReturnRows(orgRow())
    _, err := f.events.GuestList(context.Background(), id, organizer(uuid.New()))
    assert.Equal(t, booking.KindForbidden, booking.KindOf(err))
    assert.EqualError(t, err, "not authorized to view this guest list")

    f.mock.ExpectQuery(q("SELECT organizer_id FROM events")).WillReturnRows(orgRow())
    f.mock.ExpectQuery(q("JOIN users u")).WithArgs(id).
        WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at"}).
            AddRow(uuid.NewString(), "a@example.com", "h", "attendee", now, now))
    users, err := f.events.GuestList(context.Background(), id, organizer(org))
    require.NoError(t, err)
    assert.Len(t, users, 1)

    f.mock.ExpectQuery(q("SELECT organizer_id FROM events")).WillReturnRows(sqlmock.NewRows([]string{"organizer_id"}))
    _, err = f.events.GuestList(context.Background(), id, organizer(org))
    assert.ErrorIs(t, err, booking.ErrEventNotFound)
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteAccount_CancelsBookingsInSameTransaction(t *testing.T) {
    f := newFixture(t)
    userID, eventID, bookingID := uuid.New(), uuid.New(), uuid.New()
    bookingCols := []string{"id", "user_id", "event_id", "booking_date", "status"}
    confirmed := func() *sqlmock.Rows {
        return sqlmock.NewRows(bookingCols).AddRow(bookingID.String(), userID.String(), eventID.String(), now, "confirmed")
    }

    f.mock.ExpectBegin()
    f.mock.ExpectQuery(q("SELECT 1 FROM users WHERE id = ? FOR UPDATE")).WithArgs(userID).
        WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
    f.mock.ExpectQuery(q("WHERE user_id = ? AND status = 'confirmed'")).WithArgs(userID).WillReturnRows(confirmed())
    f.mock.ExpectQuery(q("FROM events WHERE id = ? FOR UPDATE")).WillReturnRows(eventRow(eventID, uuid.New(), 10, 1))
    f.mock.ExpectQuery(q("FROM bookings WHERE id = ? FOR UPDATE")).WillReturnRows(confirmed())
    f.mock.ExpectQuery(q("FROM events WHERE id = ? FOR UPDATE")).WillReturnRows(eventRow(eventID, uuid.New(), 10, 1))
    f.mock.ExpectExec(q("UPDATE events")).WithArgs("Go Meetup", "talks", sqlmock.AnyArg(), "Hall 1", 10, 0, eventID).
        WillReturnResult(sqlmock.NewResult(0, 1))
    f.mock.ExpectExec(q("UPDATE bookings")).WithArgs(now, "cancelled", bookingID).WillReturnResult(sqlmock.NewResult(0, 1))
    f.mock.ExpectExec(q("DELETE FROM users WHERE id = ?")).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))
    f.mock.ExpectCommit()

    require.NoError(t, f.acct.Delete(context.Background(), userID))
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteByAdmin_Self(t *testing.T) {
    f := newFixture(t)
    id := uuid.New()
    err := f.acct.DeleteByAdmin(context.Background(), booking.Actor{UserID: id, Role: model.RoleAdmin}, id)
    assert.Equal(t, booking.KindInvalid, booking.KindOf(err))
}

func TestChangeOwnRole(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    id := uuid.New()

    err := f.acct.ChangeOwnRole(ctx, booking.Actor{UserID: id, Role: model.RoleAdmin}, model.RoleAttendee)
    assert.Equal(t, booking.KindForbidden, booking.KindOf(err))

    err = f.acct.ChangeOwnRole(ctx, booking.Actor{UserID: id, Role: model.RoleAttendee}, model.RoleAdmin)
    assert.Equal(t, booking.KindInvalid, booking.KindOf(err))

    f.mock.ExpectExec(q("UPDATE users SET role=?")).WithArgs("organizer", id).WillReturnResult(sqlmock.NewResult(0, 1))
    require.NoError(t, f.acct.ChangeOwnRole(ctx, booking.Actor{UserID: id, Role: model.RoleAttendee}, model.RoleOrganizer))
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateEmail_InUse(t *testing.T) {
    f := newFixture(t)
    id := uuid.New()
    f.mock.ExpectExec(q("UPDATE users SET email=?")).WithArgs("b@example.com", id).
        WillReturnError(&mysqlDup)

    err := f.acct.UpdateEmail(context.Background(), id, "B@example.com")
    assert.Equal(t, booking.KindConflict, booking.KindOf(err))
    assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestUpdatePassword(t *testing.T) {
    f := newFixture(t)
    id := uuid.New()

    err := f.acct.UpdatePassword(context.Background(), id, "short", "short")
    assert.Equal(t, booking.KindInvalid, booking.KindOf(err))
    err = f.acct.UpdatePassword(context.Background(), id, "longenough1", "longenough2")
    assert.EqualError(t, err, "passwords do not match")

    f.mock.ExpectExec(q("UPDATE users SET password_hash=?")).WithArgs(sqlmock.AnyArg(), id).WillReturnResult(sqlmock.NewResult(0, 1))
    f.mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at")).WithArgs(sqlmock.AnyArg(), id).WillReturnResult(sqlmock.NewResult(0, 2))
    require.NoError(t, f.acct.UpdatePassword(context.Background(), id, "longenough1", "longenough1"))
    assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDetails_Missing(t *testing.T) {
    f := newFixture(t)
    f.mock.ExpectQuery(q("FROM users WHERE id=?")).WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err := f.acct.Details(context.Background(), uuid.New())
    assert.ErrorIs(t, err, booking.ErrNotFound)
}

var mysqlDup = mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
