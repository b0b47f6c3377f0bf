package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSchema(t *testing.T) {
	headers := []string{"Start Time", "Clean Price", "Commodity Name", "Market"}
	schema := DetectSchema(headers)

	assert.Equal(t, Detection{Column: "Start Time", Found: true}, schema.Date)
	assert.Equal(t, Detection{Column: "Clean Price", Found: true}, schema.Price)
	assert.Equal(t, Detection{Column: "Commodity Name", Found: true}, schema.Commodity)
	assert.Equal(t, Detection{Column: "Market", Found: true}, schema.Market)
	assert.True(t, schema.Complete())
}

func TestDetectSchema_FirstMatchWins(t *testing.T) {
	// Two date-like and two price-like columns: declaration order in the
	// table decides, not match quality.
	headers := []string{"timestamp", "Date Recorded", "price_per_kg", "Price (bag)"}
	schema := DetectSchema(headers)

	assert.Equal(t, "timestamp", schema.Date.Column)
	assert.Equal(t, "price_per_kg", schema.Price.Column)
}

func TestDetectSchema_MissingRoles(t *testing.T) {
	schema := DetectSchema([]string{"id", "notes", "volume"})

	assert.False(t, schema.Date.Found)
	assert.False(t, schema.Price.Found)
	assert.False(t, schema.Commodity.Found)
	assert.False(t, schema.Market.Found)
	assert.False(t, schema.Complete())
}

func TestDetectSchema_MarketOptional(t *testing.T) {
	schema := DetectSchema([]string{"Date", "Price", "Commodity"})

	assert.True(t, schema.Complete(), "market is not required for completeness")
	assert.False(t, schema.Market.Found)
}

func TestDetectSchema_LocationAliasesMarket(t *testing.T) {
	schema := DetectSchema([]string{"Date", "Price", "Commodity", "Location"})
	assert.Equal(t, "Location", schema.Market.Column)
}
