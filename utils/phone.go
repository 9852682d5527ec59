package utils

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhoneNumber strips formatting characters and normalizes a phone
// number for storage. A leading + is preserved for international
// numbers.
func FormatPhoneNumber(phoneNumber string) string {
	phoneNumber = strings.TrimSpace(phoneNumber)
	international := strings.HasPrefix(phoneNumber, "+")

	digits := nonDigits.ReplaceAllString(phoneNumber, "")
	if digits == "" {
		return ""
	}
	if international {
		return "+" + digits
	}
	return digits
}

// ValidatePhoneNumber accepts 7 to 15 digits, optionally prefixed with +.
func ValidatePhoneNumber(phoneNumber string) bool {
	digits := nonDigits.ReplaceAllString(phoneNumber, "")
	return len(digits) >= 7 && len(digits) <= 15
}
