package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9_]{2,48}$`)

// NormalizeName lowercases s and drops all whitespace. "Cafe Luna" becomes "cafeluna".
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateTenantID checks the allow-listed charset. Tenant ids end up inside
// schema names, so nothing outside [a-z0-9_] may pass.
func ValidateTenantID(id string) error {
	if !tenantIDPattern.MatchString(id) {
		return NewValidationError("hotelName", "must be 2-48 characters of letters, digits or underscore")
	}
	return nil
}

// TenantIDFromHotelName normalizes a hotel name and validates the result
func TenantIDFromHotelName(hotelName string) (string, error) {
	id := NormalizeName(hotelName)
	if err := ValidateTenantID(id); err != nil {
		return "", err
	}
	return id, nil
}

// LoginHandle derives an admin username: normalized hotel and admin names
// joined by an underscore.
func LoginHandle(hotelName, adminName string) string {
	return NormalizeName(hotelName) + "_" + NormalizeName(adminName)
}
