package ingest

import (
	"testing"

	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDeduplicatesByEmail(t *testing.T) {
	records := []model.Contact{
		{Email: "a@example.com", Name: "Alice", Tags: []string{"Health Summit"}},
		{Email: "b@example.com", Name: "Bob"},
		{Email: "a@example.com", Tags: []string{"Business Bootcamp"}},
	}

	merged := Merge(records)

	require.Len(t, merged, 2)
	assert.Equal(t, "a@example.com", merged[0].Email)
	assert.Equal(t, "Alice", merged[0].Name)
	assert.Equal(t, []string{"Health Summit", "Business Bootcamp"}, merged[0].Tags)
}

func TestMergeEmailCaseSensitive(t *testing.T) {
	records := []model.Contact{
		{Email: "a@example.com"},
		{Email: "A@example.com"},
	}

	merged := Merge(records)

	assert.Len(t, merged, 2)
}

func TestMergeScalarLastNonEmptyWins(t *testing.T) {
	records := []model.Contact{
		{Email: "a@example.com", Name: "First", Company: "Acme"},
		{Email: "a@example.com", Name: "", Company: "Globex"},
		{Email: "a@example.com", Name: "Third", Company: ""},
	}

	merged := Merge(records)

	require.Len(t, merged, 1)
	// Empty incoming values never erase; later non-empties override.
	assert.Equal(t, "Third", merged[0].Name)
	assert.Equal(t, "Globex", merged[0].Company)
}

func TestMergeBucketLastWinsUnconditionally(t *testing.T) {
	records := []model.Contact{
		{Email: "a@example.com", MainBucket: "Health"},
		{Email: "a@example.com", MainBucket: ""},
	}

	merged := Merge(records)

	require.Len(t, merged, 1)
	assert.Empty(t, merged[0].MainBucket)
}

func TestMergeEngagementRetainedWhenIncomingEmpty(t *testing.T) {
	records := []model.Contact{
		{Email: "a@example.com", Engagement: model.EngagementHigh},
		{Email: "a@example.com"},
	}

	merged := Merge(records)

	require.Len(t, merged, 1)
	assert.Equal(t, model.EngagementHigh, merged[0].Engagement)
}

func TestMergeListFieldsCommutative(t *testing.T) {
	a := model.Contact{Email: "a@example.com", Tags: []string{"t1", "t2"}, SummitHistory: []string{"s1"}}
	b := model.Contact{Email: "a@example.com", Tags: []string{"t2", "t3"}, SummitHistory: []string{"s2", "s1"}}

	ab := Merge([]model.Contact{a, b})
	ba := Merge([]model.Contact{b, a})

	require.Len(t, ab, 1)
	require.Len(t, ba, 1)
	assert.ElementsMatch(t, ab[0].Tags, ba[0].Tags)
	assert.ElementsMatch(t, ab[0].SummitHistory, ba[0].SummitHistory)
}

func TestMergeCollapsesDuplicateTagsWithinRecord(t *testing.T) {
	merged := Merge([]model.Contact{
		{Email: "a@example.com", Tags: []string{"x", "x", "y"}},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, []string{"x", "y"}, merged[0].Tags)
}

func TestMergeSkipsEmptyEmails(t *testing.T) {
	merged := Merge([]model.Contact{
		{Email: "", Name: "Ghost"},
		{Email: "a@example.com"},
	})

	assert.Len(t, merged, 1)
}
