package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/auth"
	"github.com/geocoder89/supporthub/internal/domain/session"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/security"
	"github.com/geocoder89/supporthub/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserStore persists credentials. UpdateRole and Delete must enforce the
// last-admin invariant inside the same transaction as the write.
type UserStore interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	Search(ctx context.Context, query string, limit int) ([]user.User, error)
	UpdateRole(ctx context.Context, id, role string, at time.Time) (user.User, error)
	Delete(ctx context.Context, id string) error
	TotalDonated(ctx context.Context, id string) (float64, error)
}

type SessionStore interface {
	Create(ctx context.Context, s session.Session) error
	Get(ctx context.Context, id string) (session.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

// Identity is what a valid bearer token resolves to.
type Identity struct {
	User      user.User
	SessionID string
}

type Service struct {
	users    UserStore
	sessions SessionStore
	tokens   *auth.Manager
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

func NewService(users UserStore, sessions SessionStore, tokens *auth.Manager, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	verr := apperr.NewValidation("")
	if name == "" {
		verr.Add("name", "is required")
	}
	if s.validate.Var(email, "required,email") != nil {
		verr.Add("email", "must be a valid email address")
	}
	if utf8.RuneCountInString(req.Password) < security.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", security.MinPasswordLength))
	} else if len(req.Password) > 72 {
		verr.Add("password", "must be at most 72 bytes")
	}
	if err := verr.OrNil(); err != nil {
		return user.User{}, "", err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return user.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return user.User{}, "", apperr.Field("email", "has already been taken")
		}
		return user.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return user.User{}, "", err
	}

	s.log.InfoContext(ctx, "user_registered", "user_id", u.ID)

	return u, token, nil
}

// Login never reveals whether the email exists.
func (s *Service) Login(ctx context.Context, req user.LoginRequest) (user.User, string, error) {
	u, err := s.checkCredentials(ctx, req)
	if err != nil {
		return user.User{}, "", err
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return user.User{}, "", err
	}

	return u, token, nil
}

// AdminLogin issues a token only to admins; valid non-admin credentials fail
// with a forbidden error and no session is created.
func (s *Service) AdminLogin(ctx context.Context, req user.LoginRequest) (user.User, string, error) {
	u, err := s.checkCredentials(ctx, req)
	if err != nil {
		return user.User{}, "", err
	}

	if err := RequireAdmin(u); err != nil {
		return user.User{}, "", err
	}

	token, err := s.issue(ctx, u)
	if err != nil {
		return user.User{}, "", err
	}

	s.log.InfoContext(ctx, "admin_login", "user_id", u.ID)

	return u, token, nil
}

func (s *Service) checkCredentials(ctx context.Context, req user.LoginRequest) (user.User, error) {
	invalid := apperr.Unauthenticated("invalid credentials")

	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			security.BurnCompare(req.Password)
			return user.User{}, invalid
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return user.User{}, invalid
	}

	return u, nil
}

func (s *Service) issue(ctx context.Context, u user.User) (string, error) {
	now := s.now()
	sessionID := uuid.NewString()

	raw, expiresAt, err := s.tokens.Issue(sessionID, u.ID, now)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	err = s.sessions.Create(ctx, session.Session{
		ID:        sessionID,
		UserID:    u.ID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return raw, nil
}

// Authenticate resolves a bearer token to its user. The role comes from the
// store, so role changes apply to tokens already issued.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, apperr.Unauthenticated("missing token")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, apperr.Unauthenticated("invalid token")
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Identity{}, apperr.Unauthenticated("unknown session")
		}
		return Identity{}, fmt.Errorf("load session: %w", err)
	}

	if !sess.Active(s.now()) || sess.UserID != claims.UserID {
		return Identity{}, apperr.Unauthenticated("session expired or revoked")
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Identity{}, apperr.Unauthenticated("user no longer exists")
		}
		return Identity{}, fmt.Errorf("load user: %w", err)
	}

	return Identity{User: u, SessionID: sess.ID}, nil
}

func RequireAdmin(u user.User) error {
	if !u.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// Logout revokes a session. Revoking an unknown or already revoked session
// succeeds.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	err := s.sessions.Revoke(ctx, sessionID, s.now())
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (user.User, error) {
	if userID == "" {
		return user.User{}, apperr.Unauthenticated("missing identity")
	}
	return s.users.GetByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, page int) (user.Page, error) {
	if page < 1 {
		page = 1
	}

	users, total, err := s.users.List(ctx, user.PageSize, utils.Offset(page, user.PageSize))
	if err != nil {
		return user.Page{}, fmt.Errorf("list users: %w", err)
	}

	items := make([]user.Summary, 0, len(users))
	for _, u := range users {
		items = append(items, u.Summary())
	}

	return user.Page{
		Items:       items,
		CurrentPage: page,
		PerPage:     user.PageSize,
		Total:       total,
		LastPage:    utils.LastPage(total, user.PageSize),
	}, nil
}

func (s *Service) SearchUsers(ctx context.Context, query string) ([]user.Summary, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return nil, apperr.NewValidation("Query must be at least 2 characters").Add("query", "must be at least 2 characters")
	}

	users, err := s.users.Search(ctx, query, user.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	out := make([]user.Summary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (user.Detail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.Detail{}, err
	}

	total, err := s.users.TotalDonated(ctx, id)
	if err != nil {
		return user.Detail{}, fmt.Errorf("total donated: %w", err)
	}

	return user.Detail{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		TotalDonated: total,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (s *Service) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	if !user.ValidRole(role) {
		return user.User{}, apperr.Field("role", "must be one of user, admin")
	}

	u, err := s.users.UpdateRole(ctx, id, role, s.now())
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user_role_updated",
		"user_id", u.ID,
		"role", u.Role,
	)

	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "user_deleted", "user_id", id)

	return nil
}

// EnsureAdmin creates the bootstrap admin when no user holds the email.
// An existing account is returned unchanged.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (user.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return user.User{}, apperr.NewValidation("admin email and password are required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return user.User{}, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	now := s.now()
	u := user.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return user.User{}, fmt.Errorf("create admin: %w", err)
	}

	s.log.InfoContext(ctx, "admin_seeded", "user_id", u.ID)
	return u, nil
}
