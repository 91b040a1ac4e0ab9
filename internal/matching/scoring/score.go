// Package scoring computes the match score between a project and a
// vendor. The function is pure: no I/O, no errors, same inputs always
// produce the same score.
package scoring

import (
	"math"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

// Score rates how well a vendor fits a project:
//
//	overlap   = |neededServices ∩ offeredServices|
//	slaWeight = max(0, 3 - responseSlaHours/24)
//	score     = overlap*2 + rating + slaWeight
//
// rounded half-up to two decimal places. Inputs are treated as sets;
// duplicate service entries are ignored. An empty needs list gives
// overlap 0, which is a valid low score, not an error.
func Score(project domain.Project, vendor domain.Vendor) float64 {
	overlap := ServiceOverlap(project.NeededServices, vendor.OfferedServices)
	slaWeight := SlaWeight(vendor.ResponseSlaHours)

	score := float64(overlap)*2 + vendor.Rating + slaWeight

	return round2(score)
}

// ServiceOverlap counts the services present in both lists, ignoring
// duplicates on either side.
func ServiceOverlap(needed, offered []domain.ServiceType) int {
	offeredSet := make(map[domain.ServiceType]struct{}, len(offered))
	for _, s := range offered {
		offeredSet[s] = struct{}{}
	}

	seen := make(map[domain.ServiceType]struct{}, len(needed))
	overlap := 0
	for _, s := range needed {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := offeredSet[s]; ok {
			overlap++
		}
	}
	return overlap
}

// SlaWeight rewards shorter response-time commitments. Real-valued
// division, clamped at zero: 72h is exactly 0, anything slower stays 0.
func SlaWeight(responseSlaHours int) float64 {
	w := 3 - float64(responseSlaHours)/24
	if w < 0 {
		return 0
	}
	return w
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
