// Package queue carries committed booking transitions over RabbitMQ.  The
// Publisher sends them after commit; the Consumer appends them to the
// booking log.
package queue

import (
    "time"

    "github.com/pranavOffl/EventBookingSystem/internal/booking"
)

// Queue names, one per transition.
const (
    QueueBookingConfirmed = string(booking.TransitionConfirmed)
    QueueBookingCancelled = string(booking.TransitionCancelled)
)

// BookingEvent is the message body published for a transition.  It holds
// enough of the event row that consumers do not need to query the database.
type BookingEvent struct {
    Type        string `json:"type"`
    BookingID   string `json:"booking_id"`
    UserID      string `json:"user_id"`
    EventID     string `json:"event_id"`
    EventTitle  string `json:"event_title"`
    EventDate   string `json:"event_date"`
    BookedSeats int    `json:"booked_seats"`
    Capacity    int    `json:"capacity"`
    ActorID     string `json:"actor_id"`
    OccurredAt  string `json:"occurred_at"`
}

// FromNotification converts a committed transition into a message body.
func FromNotification(n booking.Notification) BookingEvent {
    return BookingEvent{
        Type:        string(n.Transition),
        BookingID:   n.Booking.ID.String(),
        UserID:      n.Booking.UserID.String(),
        EventID:     n.Booking.EventID.String(),
        EventTitle:  n.Event.Title,
        EventDate:   n.Event.Date.UTC().Format(time.RFC3339),
        BookedSeats: n.Event.BookedSeats,
        Capacity:    n.Event.Capacity,
        ActorID:     n.ActorID.String(),
        OccurredAt:  n.At.UTC().Format(time.RFC3339),
    }
}
