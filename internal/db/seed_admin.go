package db

import (
	"context"
	"log/slog"

	"github.com/geocoder89/supporthub/internal/config"
	"github.com/geocoder89/supporthub/internal/domain/user"
)

type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, name, email, password string) (user.User, error)
}

// EnsureAdminUser creates the configured bootstrap admin. It is a no-op when
// ADMIN_EMAIL or ADMIN_PASSWORD is unset.
func EnsureAdminUser(ctx context.Context, admins AdminSeeder, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.WarnContext(ctx, "admin_seed_skipped", "reason", "ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	u, err := admins.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}

	if !u.IsAdmin() {
		log.WarnContext(ctx, "admin_seed_email_not_admin", "user_id", u.ID)
	}
	return nil
}
