package suburbs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Dataset {
	t.Helper()
	data, err := LoadFile("testdata/suburb_income.json")
	require.NoError(t, err)
	return data
}

func TestMultiplierForIncome(t *testing.T) {
	tests := []struct {
		income float64
		want   float64
	}{
		{100000, 1.25},
		{80001, 1.25},
		{80000, 1.15},
		{60001, 1.15},
		{60000, 1.05},
		{40001, 1.05},
		{40000, 1.0},
		{0, 1.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MultiplierForIncome(tt.income), "income %v", tt.income)
	}
}

func TestLoadFile(t *testing.T) {
	data := loadFixture(t)

	assert.True(t, data.Loaded())
	assert.Equal(t, 6, data.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.json")
	require.Error(t, err)
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{"data": [`))
	require.Error(t, err)
}

func TestResolveMultiplier(t *testing.T) {
	lookup := NewLookup(loadFixture(t))
	ctx := context.Background()

	tests := []struct {
		name       string
		postcode   string
		multiplier float64
		found      bool
		suburb     string
		message    string
	}{
		{"high income", "2001", 1.25, true, "Hillcrest", ""},
		{"upper middle", "3002", 1.15, true, "Riverbend", ""},
		{"middle", "4003", 1.05, true, "Oakridge", ""},
		{"low income", "5004", 1.0, true, "Saltmarsh", ""},
		{"bracket edge", "6006", 1.15, true, "Boundary Flat", ""},
		{"trailing text", " 3002 VIC", 1.15, true, "Riverbend", ""},
		{"unknown", "9999", 1.0, false, "", msgNotFound},
		{"malformed", "abcd", 1.0, false, "", msgInvalidPostcode},
		{"empty", "", 1.0, false, "", msgInvalidPostcode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lookup.ResolveMultiplier(ctx, tt.postcode)

			assert.Equal(t, tt.multiplier, res.Multiplier)
			assert.Equal(t, tt.found, res.Found)
			assert.Equal(t, tt.message, res.Message)
			if tt.found {
				require.NotNil(t, res.Info)
				assert.Equal(t, tt.suburb, res.Info.Suburb)
			} else {
				assert.Nil(t, res.Info)
			}
		})
	}
}

func TestResolveMultiplier_FirstRowWinsForSharedPostcode(t *testing.T) {
	res := NewLookup(loadFixture(t)).ResolveMultiplier(context.Background(), "2001")

	require.True(t, res.Found)
	assert.Equal(t, "Hillcrest", res.Info.Suburb)
	assert.Equal(t, "NSW", res.Info.State)
	assert.Equal(t, 91000.0, res.Info.Income)
}

func TestResolveMultiplier_UnloadedDataset(t *testing.T) {
	res := NewLookup(nil).ResolveMultiplier(context.Background(), "2001")

	assert.False(t, res.Found)
	assert.Equal(t, 1.0, res.Multiplier)
	assert.Equal(t, msgUnavailable, res.Message)
}

func TestBySuburb(t *testing.T) {
	lookup := NewLookup(loadFixture(t))

	res := lookup.BySuburb("riverBEND")
	require.True(t, res.Found)
	assert.Equal(t, 3002, res.Info.Postcode)
	assert.Equal(t, 1.15, res.Multiplier)

	missing := lookup.BySuburb("Atlantis")
	assert.False(t, missing.Found)
	assert.Equal(t, 1.0, missing.Multiplier)
	assert.Equal(t, msgSuburbNotFound, missing.Message)
}

func TestSearch(t *testing.T) {
	lookup := NewLookup(loadFixture(t))

	got := lookup.Search("hill", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Hillcrest", got[0].Name)
	assert.Equal(t, "Hillside", got[1].Name)

	assert.Len(t, lookup.Search("hill", 1), 1)
	assert.Empty(t, lookup.Search("   ", 10))
	assert.Empty(t, lookup.Search("zzz", 10))
}
