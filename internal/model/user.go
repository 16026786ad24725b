package model

import (
    "time"

    "github.com/google/uuid"
)

// Role is the authorization role carried by a user and by its access
// tokens.  Organizers host events, attendees book them and admins can do
// both on behalf of anyone.
type Role string

const (
    RoleOrganizer Role = "organizer"
    RoleAttendee  Role = "attendee"
    RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    switch r {
    case RoleOrganizer, RoleAttendee, RoleAdmin:
        return true
    }
    return false
}

// SelfAssignable reports whether a user may pick r for themselves at
// sign-up or from the dashboard.  Admin is granted only by another admin.
func (r Role) SelfAssignable() bool {
    return r == RoleOrganizer || r == RoleAttendee
}

// User represents an application user record as stored in the
// `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – organizer, attendee or admin.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uuid.UUID // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// UserStats pairs a user with the number of bookings they hold and the
// number of events they host.  Admin listings fill one or both counts.
type UserStats struct {
    User         User
    BookingCount int
    EventCount   int
}
