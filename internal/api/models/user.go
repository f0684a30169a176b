package models

import (
	"strconv"
	"time"
)

// User is a registered player. Guests have no row.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserPlayerPrefix marks player ids that belong to registered users. Guest
// ids are bare uuids, so the two never collide.
const UserPlayerPrefix = "user-"

// PlayerID is the id the user plays and keeps history under.
func (u *User) PlayerID() string {
	return UserPlayerPrefix + strconv.FormatInt(u.ID, 10)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Password string `json:"password" binding:"required,min=6,max=50"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the token for /ws?token= and the player id the
// history endpoints are keyed by.
type LoginResponse struct {
	Token     string    `json:"token"`
	PlayerID  string    `json:"player_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GuestResponse carries a fresh id for /ws?playerId=.
type GuestResponse struct {
	PlayerID string `json:"player_id"`
}
