package listquery

import (
	"time"

	"github.com/ignite/directmail/internal/domain"
)

// MapList flattens a stored list into the shape the list manager renders.
// Malformed tags and campaigns without an id are dropped.
func MapList(l domain.MailingList) domain.UIMailingList {
	tags := make([]domain.Tag, 0, len(l.Tags))
	for _, entry := range l.Tags {
		if t, ok := entry.Tag(); ok {
			tags = append(tags, t)
		}
	}

	campaigns := make([]domain.UICampaign, 0, len(l.Campaigns))
	for _, c := range l.Campaigns {
		if c.ID == "" {
			continue
		}
		campaigns = append(campaigns, domain.UICampaign{
			ID:         c.ID,
			OrderID:    c.ResolvedOrderID(),
			MailedDate: copyTime(c.MailedDate()),
		})
	}

	return domain.UIMailingList{
		ID:           l.ID,
		Name:         l.Name,
		RecordCount:  l.RecordCount,
		CreatedAt:    l.CreatedAt,
		CreatedBy:    l.CreatedBy,
		ModifiedDate: copyTime(l.ModifiedAt),
		ModifiedBy:   l.ModifiedBy,
		Tags:         tags,
		Campaigns:    campaigns,
	}
}

// MapLists maps every list, preserving order.
func MapLists(lists []domain.MailingList) []domain.UIMailingList {
	out := make([]domain.UIMailingList, 0, len(lists))
	for _, l := range lists {
		out = append(out, MapList(l))
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := *t
	return &v
}
