package listquery

import (
	"time"

	"github.com/ignite/directmail/internal/domain"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func ptr(t time.Time) *time.Time { return &t }

// fixtureLists returns Alpha, Beta, Gamma and Delta in storage order.
func fixtureLists() []domain.MailingList {
	return []domain.MailingList{
		{
			ID:          "l-alpha",
			Name:        "Alpha",
			RecordCount: 100,
			CreatedAt:   daysAgo(30),
			Tags:        []domain.TagEntry{domain.FlatTag("t1", "Residential")},
		},
		{
			ID:          "l-beta",
			Name:        "Beta",
			RecordCount: 50,
			CreatedAt:   daysAgo(10),
			Tags: []domain.TagEntry{
				domain.WrappedTag("t1", "Residential"),
				domain.WrappedTag("t2", "Absentee"),
			},
			Campaigns: []domain.Campaign{{ID: "c-1", OrderID: "ord-1", SentAt: ptr(daysAgo(5))}},
		},
		{
			ID:          "l-gamma",
			Name:        "Gamma",
			RecordCount: 200,
			CreatedAt:   daysAgo(90),
			ModifiedAt:  ptr(daysAgo(20)),
			Tags:        []domain.TagEntry{domain.FlatTag("t2", "Absentee")},
			Campaigns:   []domain.Campaign{{ID: "c-2", ScheduledAt: ptr(daysAgo(80))}},
		},
		{
			ID:          "l-delta",
			Name:        "Delta",
			RecordCount: 0,
			CreatedAt:   daysAgo(2),
			ModifiedAt:  ptr(daysAgo(1)),
		},
	}
}

func names(items []domain.UIMailingList) []string {
	out := make([]string, 0, len(items))
	for _, l := range items {
		out = append(out, l.Name)
	}
	return out
}

func listNames(items []domain.MailingList) []string {
	out := make([]string, 0, len(items))
	for _, l := range items {
		out = append(out, l.Name)
	}
	return out
}
