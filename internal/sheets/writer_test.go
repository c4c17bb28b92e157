package sheets

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitford/sortinghat/internal/model"
)

func TestPrepareRosterData(t *testing.T) {
	w := &Writer{config: DefaultConfig(), logger: slog.Default()}

	contacts := []model.Contact{
		{
			Email:      "zed@example.com",
			Name:       "Zed",
			MainBucket: "Health",
			Tags:       []string{"Keto Challenge", "Health Summit"},
		},
		{
			Email:      "ann@example.com",
			Name:       "Ann",
			Company:    "Acme",
			MainBucket: "Business Operations",
			Engagement: model.EngagementHigh,
		},
	}

	summary := &RosterSummary{
		Title:       "Contact Roster",
		GeneratedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ByMainBucket: map[string]int{
			"Health":              5,
			"Business Operations": 12,
		},
	}

	values := w.prepareRosterData(contacts, summary)
	require.NotEmpty(t, values)

	assert.Equal(t, []any{"Contact Roster", "Jun 1, 2025"}, values[0])
	assert.Equal(t, []any{"Total Contacts", 2}, values[3])

	// Bucket breakdown sorted by count descending.
	assert.Equal(t, []any{"Business Operations", 12}, values[7])
	assert.Equal(t, []any{"Health", 5}, values[8])

	// Contact rows sorted by email, list fields joined.
	last := values[len(values)-1]
	assert.Equal(t, "zed@example.com", last[0])
	assert.Equal(t, "Keto Challenge; Health Summit", last[5])

	first := values[len(values)-2]
	assert.Equal(t, "ann@example.com", first[0])
	assert.Equal(t, "High", first[4])
}
