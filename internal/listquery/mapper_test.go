package listquery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/directmail/internal/domain"
)

func TestMapList_TagShapes(t *testing.T) {
	raw := `{
		"id": "l-1",
		"name": "Mixed",
		"record_count": 12,
		"created_at": "2026-03-01T00:00:00Z",
		"tags": [
			{"id": "t1", "name": "Flat"},
			{"tag": {"id": "t2", "name": "Wrapped"}},
			{"id": 3, "name": "numeric id"},
			{"tag": {"id": "t4"}},
			{"tag": null},
			"junk"
		],
		"campaigns": []
	}`

	var l domain.MailingList
	require.NoError(t, json.Unmarshal([]byte(raw), &l))

	ui := MapList(l)
	assert.Equal(t, []domain.Tag{{ID: "t1", Name: "Flat"}, {ID: "t2", Name: "Wrapped"}}, ui.Tags)
	assert.Equal(t, 12, ui.RecordCount)
	assert.NotNil(t, ui.Campaigns)
}

func TestMapList_Campaigns(t *testing.T) {
	sent := daysAgo(3)
	completed := daysAgo(2)
	scheduled := daysAgo(10)
	created := daysAgo(20)

	l := domain.MailingList{
		ID:   "l-1",
		Name: "Campaigned",
		Campaigns: []domain.Campaign{
			{ID: "c-1", ActiveOrderID: "act-1", OrderID: "ord-1", SentAt: &sent, CompletedAt: &completed},
			{ID: "c-2", VendorOrderID: "ven-2", ScheduledAt: &scheduled, CreatedAt: &created},
			{ID: "c-3", CreatedAt: &created},
			{ID: "c-4"},
			{OrderID: "orphan", SentAt: &sent},
		},
	}

	ui := MapList(l)
	require.Len(t, ui.Campaigns, 4)

	assert.Equal(t, "act-1", ui.Campaigns[0].OrderID)
	assert.Equal(t, sent, *ui.Campaigns[0].MailedDate)

	assert.Equal(t, "ven-2", ui.Campaigns[1].OrderID)
	assert.Equal(t, scheduled, *ui.Campaigns[1].MailedDate)

	assert.Equal(t, "c-3", ui.Campaigns[2].OrderID)
	assert.Equal(t, created, *ui.Campaigns[2].MailedDate)

	assert.Nil(t, ui.Campaigns[3].MailedDate)
}

func TestMapList_CopiesTimes(t *testing.T) {
	mod := daysAgo(1)
	l := domain.MailingList{ID: "l-1", ModifiedAt: &mod}

	ui := MapList(l)
	require.NotNil(t, ui.ModifiedDate)
	*ui.ModifiedDate = daysAgo(100)
	assert.Equal(t, daysAgo(1), *l.ModifiedAt)
}

func TestMapLists_PreservesOrder(t *testing.T) {
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma", "Delta"}, names(MapLists(fixtureLists())))
	assert.NotNil(t, MapLists(nil))
}
