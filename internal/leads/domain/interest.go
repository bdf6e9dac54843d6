package domain

import "strings"

// InterestLevel is the classified buying intent of a lead for one listing.
type InterestLevel string

const (
	InterestUnknown InterestLevel = "unknown"
	InterestCold    InterestLevel = "cold"
	InterestWarm    InterestLevel = "warm"
	InterestHot     InterestLevel = "hot"
)

const (
	MinInterestScore = 0
	MaxInterestScore = 100
)

// ParseInterestLevel maps free text onto one of the four levels.
// Anything else is reported as InterestUnknown with ok=false.
func ParseInterestLevel(value string) (InterestLevel, bool) {
	switch InterestLevel(strings.ToLower(strings.TrimSpace(value))) {
	case InterestUnknown:
		return InterestUnknown, true
	case InterestCold:
		return InterestCold, true
	case InterestWarm:
		return InterestWarm, true
	case InterestHot:
		return InterestHot, true
	default:
		return InterestUnknown, false
	}
}

func (l InterestLevel) String() string { return string(l) }
