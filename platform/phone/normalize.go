// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "AU"

// ErrInvalidNumber is returned when input cannot be parsed into a valid dialable number.
var ErrInvalidNumber = errors.New("invalid phone number")

// ParseE164 parses input using region for numbers without a country prefix and
// returns the E.164 form. Empty, unparseable or invalid numbers yield ErrInvalidNumber.
func ParseE164(input, region string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrInvalidNumber
	}

	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return "", ErrInvalidNumber
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", ErrInvalidNumber
	}

	return phonenumbers.Format(number, phonenumbers.E164), nil
}
