package ingest

import (
	"strings"
	"testing"

	"github.com/mwhitford/sortinghat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := `Email,Name,Company,Tags,Summit History,Engagement,Main Bucket
a@example.com,Alice,Acme,"Health Summit;Keto Challenge","Wellness Summit 2023",High,Health
b@example.com,Bob,,,,,
,Skipped,NoEmail,,,,
`

	contacts, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, model.Contact{
		Email:         "a@example.com",
		Name:          "Alice",
		Company:       "Acme",
		Tags:          []string{"Health Summit", "Keto Challenge"},
		SummitHistory: []string{"Wellness Summit 2023"},
		Engagement:    model.EngagementHigh,
		MainBucket:    "Health",
	}, contacts[0])

	assert.Equal(t, "b@example.com", contacts[1].Email)
	assert.Nil(t, contacts[1].Tags)
	assert.Empty(t, contacts[1].Engagement)
}

func TestParseCSVHeaderAliases(t *testing.T) {
	input := "email address,full name,lists\nx@example.com,Xavier,\"Tag A;Tag B\"\n"

	contacts, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Xavier", contacts[0].Name)
	assert.Equal(t, []string{"Tag A", "Tag B"}, contacts[0].Tags)
}

func TestParseCSVMissingEmailColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,company\nAlice,Acme\n"))
	assert.Error(t, err)
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseCSVRaggedRows(t *testing.T) {
	input := "email,name,tags\nshort@example.com\nfull@example.com,Full,\"a;b\"\n"

	contacts, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Empty(t, contacts[0].Name)
	assert.Equal(t, []string{"a", "b"}, contacts[1].Tags)
}
