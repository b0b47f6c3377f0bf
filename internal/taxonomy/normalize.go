package taxonomy

import (
	"fmt"
	"strings"
)

//
// ────────────────────────────────────────────────
//   Commodity Name Normalization
// ────────────────────────────────────────────────
//
// The two source exports spell the same crop a dozen ways ("soya beans",
// "Soyabean", "soy"). Every raw label is synced to one canonical taxonomy
// name here; loaders have no raw-text passthrough.
//

// CommodityName is a canonical, taxonomy-approved commodity label. Values are
// produced by Normalize — free text never crosses a loader boundary untouched.
type CommodityName string

func (n CommodityName) String() string { return string(n) }

// Canonical names covered by the substring rule table.
const (
	Soybeans         CommodityName = "Soybeans"
	Maize            CommodityName = "Maize"
	CowpeaBrown      CommodityName = "Cowpea Brown"
	CowpeaWhite      CommodityName = "Cowpea White"
	HoneyBeans       CommodityName = "Honey beans"
	RicePaddy        CommodityName = "Rice Paddy"
	RiceProcessed    CommodityName = "Rice processed"
	Sorghum          CommodityName = "Sorghum"
	SorghumRed       CommodityName = "Sorghum red"
	SorghumWhite     CommodityName = "Sorghum white"
	SorghumYellow    CommodityName = "Sorghum yellow"
	Millet           CommodityName = "Millet"
	GroundnutGargaja CommodityName = "Groundnut gargaja"
	GroundnutKampala CommodityName = "Groundnut kampala"
)

// rule is one substring match entry. A label matches when it contains every
// keyword. Rules are evaluated in declaration order: compound entries
// ("sorghum"+"red") sit above their bare prefix ("sorghum"), which would
// otherwise shadow them.
type rule struct {
	keywords []string
	name     CommodityName
}

var rules = []rule{
	{[]string{"soya"}, Soybeans},
	{[]string{"soy"}, Soybeans},
	{[]string{"maize"}, Maize},
	{[]string{"corn"}, Maize},
	{[]string{"cowpea", "brown"}, CowpeaBrown},
	{[]string{"cowpea", "white"}, CowpeaWhite},
	{[]string{"honey"}, HoneyBeans},
	{[]string{"rice", "paddy"}, RicePaddy},
	{[]string{"rice", "process"}, RiceProcessed},
	{[]string{"sorghum", "red"}, SorghumRed},
	{[]string{"sorghum", "white"}, SorghumWhite},
	{[]string{"sorghum", "yellow"}, SorghumYellow},
	{[]string{"sorghum"}, Sorghum},
	{[]string{"millet"}, Millet},
	{[]string{"groundnut", "gargaja"}, GroundnutGargaja},
	{[]string{"groundnut", "kampala"}, GroundnutKampala},
}

// Normalize maps a raw free-text label to its canonical commodity name.
// Unmatched labels fall back to a capitalized passthrough of the input —
// best effort, not guaranteed unique across spelling variants.
// Pure and deterministic: same input, same output.
func Normalize(raw string) CommodityName {
	text := strings.ToLower(strings.TrimSpace(raw))

	for _, r := range rules {
		if containsAll(text, r.keywords) {
			return r.name
		}
	}
	return CommodityName(capitalize(text))
}

// NormalizeValue coerces a non-string cell (numeric, boolean, nil) to its
// string form before matching. Spreadsheet exports occasionally carry stray
// typed cells in the commodity column.
func NormalizeValue(v any) CommodityName {
	if v == nil {
		return Normalize("")
	}
	if s, ok := v.(string); ok {
		return Normalize(s)
	}
	return Normalize(fmt.Sprint(v))
}

func containsAll(text string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(text, k) {
			return false
		}
	}
	return true
}

// capitalize upper-cases the first rune only, matching the fallback
// convention of the legacy dashboards.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
