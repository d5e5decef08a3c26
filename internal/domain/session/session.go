package session

import "time"

// Session backs one bearer token. The token's jti is the session ID, so a
// token stays valid only while its row exists and is not revoked.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
