package api

import (
	"context"
	"time"

	"github.com/ignite/directmail/internal/accuzip"
	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/export"
	"github.com/ignite/directmail/internal/importer"
	"github.com/ignite/directmail/internal/listquery"
	"github.com/ignite/directmail/internal/service/campaign"
	"github.com/ignite/directmail/internal/service/lists"
	"github.com/ignite/directmail/internal/service/suppression"
)

// ListService is the list manager the list, tag and record endpoints call.
type ListService interface {
	Search(ctx context.Context, orgID string, opts listquery.Options) (listquery.Result, error)
	Get(ctx context.Context, orgID, id string) (*domain.MailingList, error)
	Create(ctx context.Context, orgID string, in lists.CreateInput) (*domain.MailingList, error)
	Update(ctx context.Context, orgID, id string, in lists.UpdateInput) (*domain.MailingList, error)
	Delete(ctx context.Context, orgID, id string) error
	SetTags(ctx context.Context, orgID, listID string, tagIDs []string) (*domain.MailingList, error)

	ListTags(ctx context.Context, orgID string) ([]domain.Tag, error)
	CreateTag(ctx context.Context, orgID, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, orgID, id string) error

	ListRecords(ctx context.Context, orgID, listID string, q lists.RecordQuery) ([]domain.Record, int, error)
	AddRecords(ctx context.Context, orgID, listID string, recs []domain.Record) (lists.AddResult, error)
	DeleteRecord(ctx context.Context, orgID, listID, recordID string) error
}

// CampaignService tracks mail drops sent to a list.
type CampaignService interface {
	Get(ctx context.Context, orgID, id string) (*domain.Campaign, error)
	ListForList(ctx context.Context, orgID, listID string) ([]domain.Campaign, error)
	Create(ctx context.Context, orgID, listID string, in campaign.CreateInput) (*domain.Campaign, error)
	MarkMailed(ctx context.Context, orgID, id string, at time.Time) (*domain.Campaign, error)
	MarkCompleted(ctx context.Context, orgID, id string, at time.Time) (*domain.Campaign, error)
	Cancel(ctx context.Context, orgID, id string) (*domain.Campaign, error)
	Delete(ctx context.Context, orgID, id string) error
}

// SuppressionService manages the do-not-mail list.
type SuppressionService interface {
	Suppress(ctx context.Context, orgID string, in suppression.SuppressInput) (*domain.Suppression, error)
	Import(ctx context.Context, orgID string, entries []suppression.SuppressInput) (*suppression.ImportResult, error)
	Remove(ctx context.Context, orgID, id string) error
	List(ctx context.Context, orgID string, filter suppression.ListFilter) ([]domain.Suppression, int, error)
	GetStats(ctx context.Context, orgID string) (*suppression.Stats, error)
}

// ListImporter pulls provider records into a list.
type ListImporter interface {
	Import(ctx context.Context, orgID, listID string, criteria accuzip.ListCriteria, requestedBy string) (*importer.Result, error)
}

// ProviderCounter sizes a provider selection without pulling it.
type ProviderCounter interface {
	Count(ctx context.Context, criteria accuzip.ListCriteria) (int, error)
}

// ListExporter writes a list's records to object storage.
type ListExporter interface {
	ExportList(ctx context.Context, orgID, listID string, opts export.Options) (*export.Result, error)
}

// Handlers holds the API's collaborators. Lists is required. Campaign and
// suppression routes are only mounted when their service is set; import,
// count and export answer 503 without theirs.
type Handlers struct {
	Lists        ListService
	Campaigns    CampaignService
	Suppressions SuppressionService
	Importer     ListImporter
	Provider     ProviderCounter
	Exporter     ListExporter

	now func() time.Time
}

func (h *Handlers) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}
