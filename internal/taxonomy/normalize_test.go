package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected CommodityName
	}{
		// Soy family — every spelling lands on Soybeans
		{"soya beans", "Soya Beans", Soybeans},
		{"soyabean", "soyabean", Soybeans},
		{"bare soy", "soy", Soybeans},
		{"soy surrounded by whitespace", "  soy  ", Soybeans},
		{"uppercase SOYA", "SOYA", Soybeans},

		// Maize / corn
		{"maize", "Maize", Maize},
		{"yellow corn", "Yellow Corn", Maize},

		// Cowpea varieties need both keywords
		{"cowpea brown", "Cowpea (Brown)", CowpeaBrown},
		{"brown cowpea reversed", "BROWN COWPEA", CowpeaBrown},
		{"cowpea white", "cowpea white", CowpeaWhite},

		{"honey beans", "Honey Beans (Oloyin)", HoneyBeans},

		// Rice split on processing stage
		{"rice paddy", "Rice Paddy", RicePaddy},
		{"rice processed", "Rice Processed", RiceProcessed},
		{"rice processing variant", "rice (process)", RiceProcessed},

		// Sorghum: colour variants must win over the bare rule
		{"sorghum red", "Sorghum Red", SorghumRed},
		{"red sorghum reversed", "Red Sorghum", SorghumRed},
		{"sorghum white", "sorghum white", SorghumWhite},
		{"sorghum yellow", "Sorghum-Yellow", SorghumYellow},
		{"bare sorghum", "Sorghum", Sorghum},

		{"millet", "Millet", Millet},
		{"groundnut gargaja", "Groundnut Gargaja", GroundnutGargaja},
		{"groundnut kampala", "GROUNDNUT KAMPALA", GroundnutKampala},

		// Fallback: capitalized passthrough
		{"unknown crop", "ginger", CommodityName("Ginger")},
		{"unknown multi word", "DRIED PEPPER", CommodityName("Dried pepper")},
		{"empty input", "", CommodityName("")},
		{"whitespace only", "   ", CommodityName("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, Soybeans, Normalize("soya bean"))
	}
}

func TestNormalizeValue_NonStringInput(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected CommodityName
	}{
		{"nil cell", nil, CommodityName("")},
		{"numeric cell", 42, CommodityName("42")},
		{"float cell", 3.5, CommodityName("3.5")},
		{"string passes through", "sorghum red", SorghumRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeValue(tt.input))
		})
	}
}

func TestProfileFor(t *testing.T) {
	p, curated := ProfileFor(Soybeans)
	assert.True(t, curated)
	assert.Contains(t, p.Markets, "Mubi")

	p, curated = ProfileFor(CommodityName("Ginger"))
	assert.False(t, curated)
	assert.Equal(t, "Northern Hubs", p.Markets)
}
