package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/supporthub/internal/domain/donation"
)

var csvHeader = []string{"ID", "Donor Name", "Donor Email", "Amount", "Currency", "Status", "Category", "User", "Created At"}

type Export struct {
	CSV      string `json:"csv"`
	Filename string `json:"filename"`
}

// ExportCSV renders every donation, newest first.
func (l *Ledger) ExportCSV(ctx context.Context) (Export, error) {
	all, err := l.donations.All(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("load donations: %w", err)
	}

	return Export{
		CSV:      RenderCSV(all),
		Filename: "donations_" + l.now().Format("2006-01-02_15-04-05") + ".csv",
	}, nil
}

// RenderCSV writes the header unquoted and every data field quoted, with
// embedded quotes doubled.
func RenderCSV(items []donation.Donation) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteByte('\n')

	for _, d := range items {
		category := "N/A"
		if d.Category != nil {
			category = d.Category.Name
		}
		donor := "Anonymous"
		if d.User != nil {
			donor = d.User.Name
		}

		fields := []string{
			d.ID,
			d.DonorName,
			d.DonorEmail,
			strconv.FormatFloat(d.Amount, 'f', 2, 64),
			d.Currency,
			d.Status,
			category,
			donor,
			d.CreatedAt.UTC().Format(time.DateTime),
		}

		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}

	return b.String()
}
