package dashboard

import (
	"context"
	"fmt"
	"math"

	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/testimonial"
	"golang.org/x/sync/errgroup"
)

const (
	LatestCount = 5
	Months      = 6
)

type Summary struct {
	TotalDonations   int     `json:"total_donations"`
	TotalAmount      float64 `json:"total_amount"`
	TotalUsers       int     `json:"total_users"`
	TotalMessages    int     `json:"total_messages"`
	ApprovedMessages int     `json:"approved_messages"`
	PendingMessages  int     `json:"pending_messages"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// MonthCount is keyed by "YYYY-MM".
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type MonthAmount struct {
	Month       string  `json:"month"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
}

type Overview struct {
	Summary           Summary                   `json:"summary"`
	LatestDonations   []donation.Donation       `json:"latest_donations"`
	LatestMessages    []testimonial.Testimonial `json:"latest_messages"`
	DonationsByStatus []StatusCount             `json:"donations_by_status"`
	MessagesByMonth   []MonthCount              `json:"messages_by_month"`
	DonationsByMonth  []MonthAmount             `json:"donations_by_month"`
}

// Store computes the cross-table aggregates. Month series are the most
// recent months that have data, newest first.
type Store interface {
	Totals(ctx context.Context) (Summary, error)
	DonationsByStatus(ctx context.Context) ([]StatusCount, error)
	TestimonialsByMonth(ctx context.Context, months int) ([]MonthCount, error)
	DonationsByMonth(ctx context.Context, months int) ([]MonthAmount, error)
}

type LatestDonations interface {
	Latest(ctx context.Context, n int) ([]donation.Donation, error)
}

type LatestTestimonials interface {
	Latest(ctx context.Context, n int) ([]testimonial.Testimonial, error)
}

type Service struct {
	store        Store
	donations    LatestDonations
	testimonials LatestTestimonials
}

func NewService(store Store, donations LatestDonations, testimonials LatestTestimonials) *Service {
	return &Service{store: store, donations: donations, testimonials: testimonials}
}

// Overview runs the independent aggregate queries concurrently and fails
// if any of them fails.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sum, err := s.store.Totals(gctx)
		if err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		sum.TotalAmount = math.Round(sum.TotalAmount*100) / 100
		out.Summary = sum
		return nil
	})
	g.Go(func() error {
		ds, err := s.donations.Latest(gctx, LatestCount)
		if err != nil {
			return fmt.Errorf("latest donations: %w", err)
		}
		out.LatestDonations = ds
		return nil
	})
	g.Go(func() error {
		ts, err := s.testimonials.Latest(gctx, LatestCount)
		if err != nil {
			return fmt.Errorf("latest testimonials: %w", err)
		}
		out.LatestMessages = ts
		return nil
	})
	g.Go(func() error {
		bs, err := s.store.DonationsByStatus(gctx)
		if err != nil {
			return fmt.Errorf("donations by status: %w", err)
		}
		out.DonationsByStatus = bs
		return nil
	})
	g.Go(func() error {
		ms, err := s.store.TestimonialsByMonth(gctx, Months)
		if err != nil {
			return fmt.Errorf("testimonials by month: %w", err)
		}
		out.MessagesByMonth = ms
		return nil
	})
	g.Go(func() error {
		ms, err := s.store.DonationsByMonth(gctx, Months)
		if err != nil {
			return fmt.Errorf("donations by month: %w", err)
		}
		for i := range ms {
			ms[i].TotalAmount = math.Round(ms[i].TotalAmount*100) / 100
		}
		out.DonationsByMonth = ms
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	if out.LatestDonations == nil {
		out.LatestDonations = []donation.Donation{}
	}
	if out.LatestMessages == nil {
		out.LatestMessages = []testimonial.Testimonial{}
	}
	if out.DonationsByStatus == nil {
		out.DonationsByStatus = []StatusCount{}
	}
	if out.MessagesByMonth == nil {
		out.MessagesByMonth = []MonthCount{}
	}
	if out.DonationsByMonth == nil {
		out.DonationsByMonth = []MonthAmount{}
	}

	return out, nil
}
