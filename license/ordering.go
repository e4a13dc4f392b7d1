/*
ordering.go - Static ordering policy for categories and ranks

PURPOSE:
  Defines the total order used by every list, dashboard table and printed
  report. The tables are pure data and must keep the same labels and the
  same relative order as the reports already printed from them.

TABLES:
  Category: ضابط(1) ضابط صف(2) مهني(3) مدني(4), anything else 99
  Officer:  مقدم .. ملازم, a trailing "حقوقي" qualifier is ignored
  NCO:      مساعد أول .. جندي, no qualifier stripping

UNKNOWN VALUES:
  Unknown categories and ranks map to UnknownOrder (99) so they sort after
  every known value. This is never an error.

SEE ALSO:
  - sort.go: Comparators built on these tables
*/
package license

import "strings"

// UnknownOrder is the position of any unrecognized category or rank.
const UnknownOrder = 99

// OfficerRanks is ordered from highest to lowest.
var OfficerRanks = []string{
	"مقدم",
	"رائد",
	"نقيب",
	"ملازم أول",
	"ملازم",
}

// NCORanks is ordered from highest to lowest.
var NCORanks = []string{
	"مساعد أول",
	"مساعد",
	"رقيب أول",
	"رقيب",
	"عريف",
	"جندي",
}

// LegalQualifier is the trailing marker carried by legal-branch officers,
// e.g. "نقيب حقوقي" or "رائد - حقوقي".
const LegalQualifier = "حقوقي"

var (
	officerRankOrder = rankTable(OfficerRanks)
	ncoRankOrder     = rankTable(NCORanks)
)

func rankTable(ranks []string) map[string]int {
	m := make(map[string]int, len(ranks))
	for i, r := range ranks {
		m[r] = i + 1
	}
	return m
}

// CategoryOrder returns 1..4 for known categories and UnknownOrder otherwise.
func CategoryOrder(c Category) int {
	switch c {
	case CategoryOfficer:
		return 1
	case CategoryNCO:
		return 2
	case CategoryProfessional:
		return 3
	case CategoryCivilian:
		return 4
	default:
		return UnknownOrder
	}
}

// OfficerRankOrder looks up an officer rank after stripping the legal qualifier.
func OfficerRankOrder(rank string) int {
	if o, ok := officerRankOrder[NormalizeOfficerRank(rank)]; ok {
		return o
	}
	return UnknownOrder
}

// NCORankOrder looks up an NCO rank verbatim (whitespace-trimmed).
func NCORankOrder(rank string) int {
	if o, ok := ncoRankOrder[strings.TrimSpace(rank)]; ok {
		return o
	}
	return UnknownOrder
}

// RankOrder returns the rank position within the category, or 0 when the
// category defines no rank ordering (professional, civilian, unknown).
func RankOrder(c Category, rank string) int {
	switch c {
	case CategoryOfficer:
		return OfficerRankOrder(rank)
	case CategoryNCO:
		return NCORankOrder(rank)
	default:
		return 0
	}
}

// NormalizeOfficerRank strips an optional trailing legal qualifier along with
// any separator before it ("-", "—", "/", parentheses).
func NormalizeOfficerRank(rank string) string {
	r := strings.TrimSpace(rank)
	r = strings.TrimSpace(strings.TrimSuffix(r, ")"))
	if !strings.HasSuffix(r, LegalQualifier) {
		return strings.TrimSpace(rank)
	}
	r = strings.TrimSuffix(r, LegalQualifier)
	return strings.TrimRight(r, " \t-–—/(")
}
