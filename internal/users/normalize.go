package users

import (
	"regexp"
	"strings"
)

var frenchPhone = regexp.MustCompile(`^0[1-9]\d{8}$`)

var phoneSeparators = strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "")

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips the separators people type in French numbers
// ("06 12 34 56 78", "06.12.34.56.78") and rewrites the international
// prefixes +33 and 0033 to the national 0, so one number has one form.
func NormalizePhone(phone string) string {
	phone = phoneSeparators.Replace(strings.TrimSpace(phone))
	for _, prefix := range []string{"+33", "0033"} {
		if rest, ok := strings.CutPrefix(phone, prefix); ok {
			return "0" + rest
		}
	}
	return phone
}

func IsFrenchPhone(phone string) bool {
	return frenchPhone.MatchString(NormalizePhone(phone))
}

// IsEmailIdentifier decides whether a login identifier is an email or a phone.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}
