package taxonomy

//
// ────────────────────────────────────────────────
//   Commodity Intelligence Profiles
// ────────────────────────────────────────────────
//

// Profile is static reference data for one canonical commodity: what it is,
// where it is usually sourced, and when it is abundant. Loaded once at
// process start, never mutated.
type Profile struct {
	Description string `json:"description"`
	Markets     string `json:"markets"`
	Abundance   string `json:"abundance"`
	Note        string `json:"note"`
}

var profiles = map[CommodityName]Profile{
	Soybeans: {
		Description: "A raw leguminous crop used for oil and feed.",
		Markets:     "Mubi, Giwa, and Kumo",
		Abundance:   "Nov, Dec, and April",
		Note:        "A key industrial driver for the poultry and vegetable oil sectors.",
	},
	CowpeaBrown: {
		Description: "Protein-rich legume popular in local diets.",
		Markets:     "Dawanau and Potiskum",
		Abundance:   "Oct through Jan",
		Note:        "Supply depends on Northern storage.",
	},
	CowpeaWhite: {
		Description: "Staple bean variety used for commercial flour.",
		Markets:     "Dawanau and Bodija",
		Abundance:   "Oct and Nov",
		Note:        "High demand in South drives prices.",
	},
	HoneyBeans: {
		Description: "Premium sweet brown beans (Oloyin).",
		Markets:     "Oyingbo and Dawanau",
		Abundance:   "Oct to Dec",
		Note:        "Often carries a price premium.",
	},
	Maize: {
		Description: "Primary cereal crop for food and industry.",
		Markets:     "Giwa, Makarfi, and Funtua",
		Abundance:   "Sept to Nov",
		Note:        "Correlates strongly with Sorghum trends.",
	},
	RicePaddy: {
		Description: "Raw rice before milling/processing.",
		Markets:     "Argungu and Kano",
		Abundance:   "Nov and Dec",
		Note:        "Foundations for processed rice pricing.",
	},
	RiceProcessed: {
		Description: "Milled and polished local rice.",
		Markets:     "Kano, Lagos, and Onitsha",
		Abundance:   "Year-round",
		Note:        "Price fluctuates with fuel/milling costs.",
	},
	Sorghum: {
		Description: "Drought-resistant grain staple.",
		Markets:     "Dawanau and Gombe",
		Abundance:   "Dec and Jan",
		Note:        "Market substitute for Maize.",
	},
	Millet: {
		Description: "Fast-growing cereal for the lean season.",
		Markets:     "Dawanau and Potiskum",
		Abundance:   "Sept and Oct",
		Note:        "First harvest after rainy season.",
	},
	GroundnutGargaja: {
		Description: "Local peanut variety for oil extraction.",
		Markets:     "Dawanau and Gombe",
		Abundance:   "Oct and Nov",
		Note:        "Sahel region specialty.",
	},
	GroundnutKampala: {
		Description: "Large, premium roasting groundnuts.",
		Markets:     "Kano and Dawanau",
		Abundance:   "Oct and Nov",
		Note:        "Higher oil content than Gargaja.",
	},
}

// fallbackProfile is served for commodities without curated reference data.
var fallbackProfile = Profile{
	Description: "Market data profiling in progress...",
	Markets:     "Northern Hubs",
	Abundance:   "Seasonal",
	Note:        "Monitoring price shifts.",
}

// ProfileFor returns the intelligence profile for a canonical commodity.
// curated reports whether the profile is real reference data or the
// generic fallback.
func ProfileFor(name CommodityName) (p Profile, curated bool) {
	if p, ok := profiles[name]; ok {
		return p, true
	}
	return fallbackProfile, false
}
