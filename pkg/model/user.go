package model

import (
	"context"
	"log/slog"
	"time"
)

// User domain object defining a user
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Events    []Event   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// LogValue implements [slog.LogValuer] so that only identifying fields end up in the logs.
func (u *User) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(u.ID)),
		slog.String("username", u.Username),
	)
}

// Owns returns true if the user is the owner of the given event.
func (u *User) Owns(event *Event) bool {
	return u != nil && event != nil && event.UserID == u.ID
}

type userCtxKey int

var userKey userCtxKey

// NewContextWithUser returns a new [context.Context] that carries value user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user stored in ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok && u != nil
}
