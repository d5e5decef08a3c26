package db_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/geocoder89/supporthub/internal/config"
	"github.com/geocoder89/supporthub/internal/db"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/repo/memory"
)

func TestSeedCategories_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCategoriesRepo(memory.NewDB())

	n, err := db.SeedCategories(ctx, repo)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected default categories to be created")
	}

	again, err := db.SeedCategories(ctx, repo)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if again != 0 {
		t.Fatalf("second seed created %d categories, want 0", again)
	}

	count, _ := repo.Count(ctx)
	if count != n {
		t.Fatalf("count=%d want %d", count, n)
	}
}

type fakeAdminSeeder struct {
	calls int
	fn    func(name, email, password string) (user.User, error)
}

func (f *fakeAdminSeeder) EnsureAdmin(_ context.Context, name, email, password string) (user.User, error) {
	f.calls++
	return f.fn(name, email, password)
}

func TestEnsureAdminUser(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name      string
		cfg       config.Config
		seedErr   error
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "skipped_without_credentials",
			cfg:       config.Config{AdminEmail: ""},
			wantCalls: 0,
		},
		{
			name:      "seeds_configured_admin",
			cfg:       config.Config{AdminName: "Root", AdminEmail: "root@example.com", AdminPassword: "Sup3rSecret!"},
			wantCalls: 1,
		},
		{
			name:      "propagates_store_error",
			cfg:       config.Config{AdminEmail: "root@example.com", AdminPassword: "Sup3rSecret!"},
			seedErr:   errors.New("db down"),
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			seeder := &fakeAdminSeeder{fn: func(name, email, password string) (user.User, error) {
				if tt.seedErr != nil {
					return user.User{}, tt.seedErr
				}
				return user.User{ID: "u1", Name: name, Email: email, Role: user.RoleAdmin}, nil
			}}

			err := db.EnsureAdminUser(context.Background(), seeder, tt.cfg, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if seeder.calls != tt.wantCalls {
				t.Fatalf("calls=%d want %d", seeder.calls, tt.wantCalls)
			}
		})
	}
}
