package ingest

import "strings"

//
// ────────────────────────────────────────────────
//   Column Role Detection
// ────────────────────────────────────────────────
//
// Source exports never agree on header names ("Start Time", "timestamp",
// "Clean Price", "price_per_kg"...). Each logical role is resolved by a
// declarative keyword table; the first column (in original left-to-right
// order) whose lower-cased name contains any of the role's keywords wins.
// Declaration order in the table is the tie-break, not any notion of a
// "best" match.
//

// Role names a logical column in the canonical schema.
type Role string

const (
	RoleDate      Role = "date"
	RolePrice     Role = "price"
	RoleCommodity Role = "commodity"
	RoleMarket    Role = "market"
)

// roleKeywords is the ordered keyword set per role for the internal export.
var roleKeywords = map[Role][]string{
	RoleDate:      {"timestamp", "start time", "date"},
	RolePrice:     {"price_per_kg", "price", "clean"},
	RoleCommodity: {"commodity"},
	RoleMarket:    {"market", "location"},
}

// Detection is the tagged result of a role scan. Callers must branch on
// Found; a missing required role means the table cannot be loaded and the
// loader degrades to an empty dataset rather than erroring.
type Detection struct {
	Column string
	Found  bool
}

// Schema holds one Detection per canonical role.
type Schema struct {
	Date      Detection
	Price     Detection
	Commodity Detection
	Market    Detection
}

// Complete reports whether every required role (date, price, commodity) was
// found. Market is optional and defaults to the Unknown sentinel downstream.
func (s Schema) Complete() bool {
	return s.Date.Found && s.Price.Found && s.Commodity.Found
}

// DetectSchema scans headers for every canonical role.
func DetectSchema(headers []string) Schema {
	return Schema{
		Date:      detectRole(headers, RoleDate),
		Price:     detectRole(headers, RolePrice),
		Commodity: detectRole(headers, RoleCommodity),
		Market:    detectRole(headers, RoleMarket),
	}
}

// detectRole returns the first header containing any of the role's keywords.
func detectRole(headers []string, role Role) Detection {
	return Detect(headers, roleKeywords[role])
}

// Detect returns the first header (in original order) whose lower-cased name
// contains any of the given keywords. Exposed so callers with their own
// keyword tables (the forecast trainer's looser matching, for one) share the
// first-match-wins scan.
func Detect(headers []string, keywords []string) Detection {
	for _, h := range headers {
		low := strings.ToLower(h)
		for _, k := range keywords {
			if strings.Contains(low, k) {
				return Detection{Column: h, Found: true}
			}
		}
	}
	return Detection{}
}

// columnIndex resolves a detected header back to its position. Returns -1
// when the header is absent (possible only if callers pass a different
// header slice than the one scanned).
func columnIndex(headers []string, column string) int {
	for i, h := range headers {
		if h == column {
			return i
		}
	}
	return -1
}
