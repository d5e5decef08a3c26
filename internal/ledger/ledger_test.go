package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/supporthub/internal/actorctx"
	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/repo/memory"
)

type fixture struct {
	ledger   *Ledger
	db       *memory.DB
	category donation.Category
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := memory.NewDB()
	cats := memory.NewCategoriesRepo(db)

	l := New(memory.NewDonationsRepo(db), cats, slog.New(slog.NewTextHandler(io.Discard, nil)))

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	c, err := l.CreateCategory(context.Background(), donation.CategoryRequest{Name: "Medical Aid"})
	if err != nil {
		t.Fatalf("CreateCategory error: %v", err)
	}

	return fixture{ledger: l, db: db, category: c}
}

func (f fixture) donate(t *testing.T, ctx context.Context, amount float64) donation.Donation {
	t.Helper()
	d, err := f.ledger.Create(ctx, donation.CreateRequest{
		CategoryID: f.category.ID,
		Amount:     amount,
		DonorName:  "Donor",
		DonorEmail: "donor@example.com",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return d
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		req       donation.CreateRequest
		wantField string
	}{
		{"zero amount", donation.CreateRequest{CategoryID: f.category.ID, Amount: 0, DonorName: "a", DonorEmail: "a@b.co"}, "amount"},
		{"negative amount", donation.CreateRequest{CategoryID: f.category.ID, Amount: -5, DonorName: "a", DonorEmail: "a@b.co"}, "amount"},
		{"unknown category", donation.CreateRequest{CategoryID: "nope", Amount: 5, DonorName: "a", DonorEmail: "a@b.co"}, "category_id"},
		{"bad email", donation.CreateRequest{CategoryID: f.category.ID, Amount: 5, DonorName: "a", DonorEmail: "not-an-email"}, "donor_email"},
		{"bad currency", donation.CreateRequest{CategoryID: f.category.ID, Amount: 5, DonorName: "a", DonorEmail: "a@b.co", Currency: "E1"}, "currency"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Create(context.Background(), tt.req)

			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Fatalf("expected field %q, got %v", tt.wantField, verr.Fields)
			}
		})
	}

	all, _ := f.ledger.donations.All(context.Background())
	if len(all) != 0 {
		t.Fatalf("invalid requests stored %d donations", len(all))
	}
}

func TestCreate_GuestAndSignedIn(t *testing.T) {
	f := newFixture(t)

	guest := f.donate(t, context.Background(), 10)
	if guest.UserID != nil {
		t.Fatalf("guest donation has user id %v", *guest.UserID)
	}
	if guest.Status != donation.StatusPending || guest.Currency != donation.DefaultCurrency {
		t.Fatalf("unexpected defaults: status=%s currency=%s", guest.Status, guest.Currency)
	}

	u := user.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", Role: user.RoleUser}
	if err := memory.NewUsersRepo(f.db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	ctx := actorctx.WithActor(context.Background(), actorctx.Actor{UserID: u.ID, Role: u.Role})
	mine := f.donate(t, ctx, 25.556)

	if mine.UserID == nil || *mine.UserID != u.ID {
		t.Fatalf("expected donation linked to %s", u.ID)
	}
	if mine.User == nil || mine.User.Name != "Alice" {
		t.Fatalf("expected embedded user summary, got %+v", mine.User)
	}
	if mine.Amount != 25.56 {
		t.Fatalf("amount = %v, want 25.56", mine.Amount)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.donate(t, ctx, 10)

	got, err := f.ledger.UpdateStatus(ctx, d.ID, donation.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if got.Status != donation.StatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if want := d.CreatedAt.Add(time.Minute); !got.UpdatedAt.Equal(want) {
		t.Fatalf("updated_at = %v, want the ledger clock %v", got.UpdatedAt, want)
	}

	if _, err := f.ledger.UpdateStatus(ctx, d.ID, "refunded"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.ledger.UpdateStatus(ctx, "missing", donation.StatusFailed); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	other, err := f.ledger.CreateCategory(ctx, donation.CategoryRequest{Name: "Food"})
	if err != nil {
		t.Fatalf("CreateCategory error: %v", err)
	}

	a := f.donate(t, ctx, 10)
	b := f.donate(t, ctx, 20)
	c, err := f.ledger.Create(ctx, donation.CreateRequest{CategoryID: other.ID, Amount: 30, DonorName: "x", DonorEmail: "x@y.zz"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := f.ledger.UpdateStatus(ctx, b.ID, donation.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}

	all, err := f.ledger.ListFiltered(ctx, ListQuery{Page: 1})
	if err != nil {
		t.Fatalf("ListFiltered error: %v", err)
	}
	if all.Total != 3 || all.Items[0].ID != c.ID || all.Items[2].ID != a.ID {
		t.Fatalf("expected newest first, got %+v", all.Items)
	}

	combined, _ := f.ledger.ListFiltered(ctx, ListQuery{Status: donation.StatusPending, CategoryID: f.category.ID})
	if combined.Total != 1 || combined.Items[0].ID != a.ID {
		t.Fatalf("combined filter = %+v", combined.Items)
	}

	sameDay, _ := f.ledger.ListFiltered(ctx, ListQuery{StartDate: "2026-03-10", EndDate: "2026-03-10"})
	if sameDay.Total != 3 {
		t.Fatalf("inclusive day range total = %d, want 3", sameDay.Total)
	}

	later, _ := f.ledger.ListFiltered(ctx, ListQuery{StartDate: "2026-03-11"})
	if later.Total != 0 {
		t.Fatalf("future range total = %d, want 0", later.Total)
	}

	if _, err := f.ledger.ListFiltered(ctx, ListQuery{StartDate: "10/03/2026"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for bad date, got %v", err)
	}
	if _, err := f.ledger.ListFiltered(ctx, ListQuery{Status: "refunded"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestListPublic_CompletedWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.donate(t, ctx, 10)
	done := f.donate(t, ctx, 15)
	if _, err := f.ledger.UpdateStatus(ctx, done.ID, donation.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}

	page, err := f.ledger.ListPublic(ctx, 1)
	if err != nil {
		t.Fatalf("ListPublic error: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != done.ID {
		t.Fatalf("unexpected public page %+v", page)
	}
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		f := newFixture(t)
		stats, err := f.ledger.Statistics(ctx)
		if err != nil {
			t.Fatalf("Statistics error: %v", err)
		}
		if stats.Summary.AverageDonation != 0 || stats.Summary.TotalCount != 0 {
			t.Fatalf("expected zero summary, got %+v", stats.Summary)
		}
		if stats.ByCategory == nil || stats.ByStatus == nil {
			t.Fatalf("expected empty slices")
		}
	})

	t.Run("mixed", func(t *testing.T) {
		f := newFixture(t)
		f.donate(t, ctx, 10)
		f.donate(t, ctx, 20)
		done := f.donate(t, ctx, 30)
		if _, err := f.ledger.UpdateStatus(ctx, done.ID, donation.StatusCompleted); err != nil {
			t.Fatalf("UpdateStatus error: %v", err)
		}

		stats, err := f.ledger.Statistics(ctx)
		if err != nil {
			t.Fatalf("Statistics error: %v", err)
		}

		s := stats.Summary
		if s.TotalAmount != 60 || s.TotalCount != 3 || s.CompletedAmount != 30 || s.CompletedCount != 1 || s.PendingAmount != 30 {
			t.Fatalf("unexpected summary %+v", s)
		}
		if s.AverageDonation != 20 {
			t.Fatalf("average = %v, want 20", s.AverageDonation)
		}
		if len(stats.ByCategory) != 1 || stats.ByCategory[0].Category == nil || stats.ByCategory[0].Category.Name != "Medical Aid" {
			t.Fatalf("unexpected by_category %+v", stats.ByCategory)
		}
		if len(stats.ByStatus) != 2 || stats.ByStatus[0].Status != donation.StatusCompleted {
			t.Fatalf("unexpected by_status %+v", stats.ByStatus)
		}
	})
}

func TestRenderCSV(t *testing.T) {
	created := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	items := []donation.Donation{
		{
			ID:         "d-1",
			DonorName:  `Smith, "Jo"`,
			DonorEmail: "jo@example.com",
			Amount:     12.5,
			Currency:   "USD",
			Status:     donation.StatusCompleted,
			Category:   &donation.CategoryRef{ID: "c-1", Name: "Food"},
			User:       &donation.UserRef{ID: "u-1", Name: "Jo"},
			CreatedAt:  created,
		},
		{
			ID:         "d-2",
			DonorName:  "Guest",
			DonorEmail: "guest@example.com",
			Amount:     3,
			Currency:   "EUR",
			Status:     donation.StatusPending,
			CreatedAt:  created,
		},
	}

	out := RenderCSV(items)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows:\n%s", len(lines), out)
	}
	if lines[0] != "ID,Donor Name,Donor Email,Amount,Currency,Status,Category,User,Created At" {
		t.Fatalf("unexpected header %q", lines[0])
	}

	want1 := `"d-1","Smith, ""Jo""","jo@example.com","12.50","USD","completed","Food","Jo","2026-02-01 08:30:00"`
	if lines[1] != want1 {
		t.Fatalf("row 1 = %q\nwant    %q", lines[1], want1)
	}

	want2 := `"d-2","Guest","guest@example.com","3.00","EUR","pending","N/A","Anonymous","2026-02-01 08:30:00"`
	if lines[2] != want2 {
		t.Fatalf("row 2 = %q\nwant    %q", lines[2], want2)
	}

	if empty := RenderCSV(nil); strings.Count(empty, "\n") != 1 {
		t.Fatalf("empty export should be header only, got %q", empty)
	}
}

func TestExportCSV_Filename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.donate(t, ctx, 5)

	exp, err := f.ledger.ExportCSV(ctx)
	if err != nil {
		t.Fatalf("ExportCSV error: %v", err)
	}
	if !strings.HasPrefix(exp.Filename, "donations_2026-03-10_") || !strings.HasSuffix(exp.Filename, ".csv") {
		t.Fatalf("unexpected filename %q", exp.Filename)
	}
	if strings.Count(exp.CSV, "\n") != 2 {
		t.Fatalf("expected header + 1 row, got %q", exp.CSV)
	}
}

func TestDeleteCategory_InUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.donate(t, ctx, 5)

	if err := f.ledger.DeleteCategory(ctx, f.category.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := f.ledger.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := f.ledger.DeleteCategory(ctx, f.category.ID); err != nil {
		t.Fatalf("DeleteCategory error: %v", err)
	}
	if _, err := f.ledger.GetCategory(ctx, f.category.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
