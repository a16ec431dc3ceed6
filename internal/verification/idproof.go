package verification

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/model"
)

const (
	msgIDNumberRequired = "ID number is required"
	msgSelectIDType     = "Please select an ID type first"
	hintSelectIDType    = "Select an ID type to see the expected format"
)

// idRule is the id_number format for one id_type.
type idRule struct {
	pattern *regexp.Regexp
	minLen  int
	upper   bool
	message string
	hint    string
}

func (r idRule) check(idNumber string) string {
	if r.upper {
		idNumber = strings.ToUpper(idNumber)
	}
	if r.pattern != nil && !r.pattern.MatchString(idNumber) {
		return r.message
	}
	if utf8.RuneCountInString(idNumber) < r.minLen {
		return r.message
	}
	return ""
}

var idRules = map[string]idRule{
	model.IDTypeAadhaar: {
		pattern: regexp.MustCompile(`^\d{12}$`),
		message: "Aadhaar number must be exactly 12 digits",
		hint:    "12 digits (e.g., 123456789012)",
	},
	model.IDTypePassport: {
		pattern: regexp.MustCompile(`^[A-Z]\d{7}$`),
		upper:   true,
		message: "Passport number must be 1 letter followed by 7 digits (e.g., A1234567)",
		hint:    "1 letter followed by 7 digits (e.g., A1234567)",
	},
	model.IDTypeDL: {
		pattern: regexp.MustCompile(`^[A-Z0-9]{10,20}$`),
		upper:   true,
		message: "Driver's license must be 10-20 alphanumeric characters",
		hint:    "10-20 letters and digits (e.g., MH1420110062821)",
	},
	model.IDTypeOther: {
		minLen:  5,
		message: "ID number must be at least 5 characters",
		hint:    "At least 5 characters",
	},
}

// ValidateIDNumber checks idNumber against the format of idType and returns
// the message of the failed rule, or "" when it is acceptable.
func ValidateIDNumber(idType, idNumber string) string {
	if idNumber == "" {
		return msgIDNumberRequired
	}
	rule, ok := idRules[idType]
	if !ok {
		return msgSelectIDType
	}
	return rule.check(idNumber)
}

// IDFormatHint describes the expected id_number format for idType.
func IDFormatHint(idType string) string {
	if rule, ok := idRules[idType]; ok {
		return rule.hint
	}
	return hintSelectIDType
}
