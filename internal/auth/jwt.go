package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMalformed    = errors.New("malformed token")
)

// Claims bind a bearer token to one server-side session. The token is opaque
// to clients; the server never trusts the role inside it.
type Claims struct {
	UserID    string `json:"sub"`
	TokenType string `json:"typ"`
	SessionID string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "supporthub",
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for sessionID. It returns the expiry it embedded so the
// session row can carry the same deadline.
func (m *Manager) Issue(sessionID, userID string, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(m.ttl)

	claims := Claims{
		UserID:    userID,
		TokenType: tokenTypeAccess,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return raw, expiresAt, nil
}

// Verify checks signature, algorithm, expiry and token type.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrMalformed
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenTypeAccess || claims.SessionID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
