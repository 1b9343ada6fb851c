// Package model defines the shared types of the contact harvester: work keys,
// establishment rows, and the run ledger records.
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// WorkKey identifies one unit of fetch work: a place category in a postal code.
type WorkKey struct {
	Category   string `json:"category" yaml:"category"`
	PostalCode string `json:"postal_code" yaml:"postal_code"`
}

// NewWorkKey normalizes the postal code and validates the category.
func NewWorkKey(category, postal string) (WorkKey, error) {
	if err := ValidCategory(category); err != nil {
		return WorkKey{}, err
	}
	pc, err := NormalizePostalCode(postal)
	if err != nil {
		return WorkKey{}, err
	}
	return WorkKey{Category: category, PostalCode: pc}, nil
}

func (k WorkKey) String() string {
	return k.Category + "/" + k.PostalCode
}

var postalRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{1,9}$`)

// NormalizePostalCode trims the code and zero-pads purely numeric codes
// shorter than five digits (the reference table stores ZIPs as integers).
func NormalizePostalCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", eris.New("model: empty postal code")
	}
	if n, err := strconv.Atoi(s); err == nil && len(s) < 5 {
		if n < 0 {
			return "", eris.Errorf("model: invalid postal code %q", s)
		}
		return fmt.Sprintf("%05d", n), nil
	}
	if !postalRe.MatchString(s) {
		return "", eris.Errorf("model: invalid postal code %q", s)
	}
	return strings.ToUpper(s), nil
}
