package similar

import (
	"math"
	"sort"
	"strings"

	"github.com/mbx/modelbox/internal/models"
)

// SharedCode is one code held by both catalogs, with per-side counts.
type SharedCode struct {
	Code  string
	Mine  int
	Other int
}

// Comparison summarizes the overlap between two catalogs by code.
type Comparison struct {
	SharedCodes   int
	SharedPercent int // share of the caller's distinct codes, rounded
	OnlyMine      int
	OnlyOther     int
	TopShared     []SharedCode
}

// topSharedLimit caps the shared-code list in a comparison.
const topSharedLimit = 10

// Compare summarizes the code overlap between the caller's entries and
// another owner's. Codes are trimmed but matched case-sensitively, the
// same way the catalog itself displays them.
func Compare(mine, other []models.Entry) *Comparison {
	mineCounts := codeCounts(mine)
	otherCounts := codeCounts(other)

	shared := make([]SharedCode, 0)
	onlyMine := 0
	for code, n := range mineCounts {
		if m, ok := otherCounts[code]; ok {
			shared = append(shared, SharedCode{Code: code, Mine: n, Other: m})
		} else {
			onlyMine++
		}
	}
	onlyOther := 0
	for code := range otherCounts {
		if _, ok := mineCounts[code]; !ok {
			onlyOther++
		}
	}

	percent := 0
	if len(mineCounts) > 0 {
		percent = int(math.Round(float64(len(shared)) / float64(len(mineCounts)) * 100))
	}

	// Rank by the smaller side's count, so a code both collect heavily
	// outranks one dominated by a single catalog.
	sort.Slice(shared, func(i, j int) bool {
		ri := min(shared[i].Mine, shared[i].Other)
		rj := min(shared[j].Mine, shared[j].Other)
		if ri != rj {
			return ri > rj
		}
		si := shared[i].Mine + shared[i].Other
		sj := shared[j].Mine + shared[j].Other
		if si != sj {
			return si > sj
		}
		return shared[i].Code < shared[j].Code
	})

	result := &Comparison{
		SharedCodes:   len(shared),
		SharedPercent: percent,
		OnlyMine:      onlyMine,
		OnlyOther:     onlyOther,
		TopShared:     shared,
	}
	if len(result.TopShared) > topSharedLimit {
		result.TopShared = result.TopShared[:topSharedLimit]
	}
	return result
}

func codeCounts(entries []models.Entry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if code == "" {
			continue
		}
		out[code]++
	}
	return out
}
