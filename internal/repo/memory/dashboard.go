package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/supporthub/internal/dashboard"
	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/user"
)

type DashboardRepo struct {
	db *DB
}

func NewDashboardRepo(db *DB) *DashboardRepo {
	return &DashboardRepo{db: db}
}

func (r *DashboardRepo) Totals(ctx context.Context) (dashboard.Summary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var s dashboard.Summary
	s.TotalDonations = len(r.db.donations)
	for _, d := range r.db.donations {
		if d.Status == donation.StatusCompleted {
			s.TotalAmount += d.Amount
		}
	}
	for _, u := range r.db.users {
		if u.Role == user.RoleUser {
			s.TotalUsers++
		}
	}
	s.TotalMessages = len(r.db.testimonials)
	for _, t := range r.db.testimonials {
		if t.Approved {
			s.ApprovedMessages++
		} else {
			s.PendingMessages++
		}
	}
	return s, nil
}

func (r *DashboardRepo) DonationsByStatus(ctx context.Context) ([]dashboard.StatusCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, d := range r.db.donations {
		counts[d.Status]++
	}

	out := make([]dashboard.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, dashboard.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (r *DashboardRepo) TestimonialsByMonth(ctx context.Context, months int) ([]dashboard.MonthCount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, t := range r.db.testimonials {
		counts[t.CreatedAt.UTC().Format("2006-01")]++
	}

	out := make([]dashboard.MonthCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, dashboard.MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return page(out, months, 0), nil
}

func (r *DashboardRepo) DonationsByMonth(ctx context.Context, months int) ([]dashboard.MonthAmount, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	byMonth := make(map[string]*dashboard.MonthAmount)
	for _, d := range r.db.donations {
		m := d.CreatedAt.UTC().Format("2006-01")
		row, ok := byMonth[m]
		if !ok {
			row = &dashboard.MonthAmount{Month: m}
			byMonth[m] = row
		}
		row.Count++
		row.TotalAmount += d.Amount
	}

	out := make([]dashboard.MonthAmount, 0, len(byMonth))
	for _, row := range byMonth {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return page(out, months, 0), nil
}
