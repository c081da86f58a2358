package session

import (
	"regexp"
	"strings"

	"github.com/noisewatch/noisewatch-go/internal/errors"
)

// nricPattern is the NRIC/FIN surface format: prefix letter, seven digits,
// checksum letter. Only the shape is checked, this is a stand-in for a real
// identity provider.
var nricPattern = regexp.MustCompile(`^[STFGM]\d{7}[A-Z]$`)

// ValidateNRIC checks the identifier format and returns its masked form.
// The full value is never stored or logged.
func ValidateNRIC(nric string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(nric))
	if !nricPattern.MatchString(normalized) {
		return "", errors.Newf("identity number has an invalid format").
			Category(errors.CategoryValidation).
			Component("session").
			Build()
	}
	return MaskNRIC(normalized), nil
}

// MaskNRIC hides all but the last four characters, e.g. S1234567A
// becomes *****567A.
func MaskNRIC(nric string) string {
	if len(nric) <= 4 {
		return nric
	}
	return strings.Repeat("*", len(nric)-4) + nric[len(nric)-4:]
}
