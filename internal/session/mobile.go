package session

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	otpPattern    = regexp.MustCompile(`^\d{6}$`)
	formatting    = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// ValidateMobileNumber returns the message of the first failing rule, or ""
// when mobile is a valid 10-digit Indian mobile number.
func ValidateMobileNumber(mobile string) string {
	switch {
	case mobile == "":
		return "Please Enter Your Mobile Number"
	case utf8.RuneCountInString(mobile) != 10:
		return "Mobile number must be 10 digits"
	case !mobilePattern.MatchString(mobile):
		return "Please enter a valid mobile number"
	}
	return ""
}

// NormalizeMobileNumber strips spaces, dashes, dots and parentheses plus a
// leading +91, 91 or 0 so only the 10 subscriber digits remain.
func NormalizeMobileNumber(mobile string) string {
	m := formatting.Replace(strings.TrimSpace(mobile))
	switch {
	case len(m) == 13 && strings.HasPrefix(m, "+91"):
		m = m[3:]
	case len(m) == 12 && strings.HasPrefix(m, "91"):
		m = m[2:]
	case len(m) == 11 && strings.HasPrefix(m, "0"):
		m = m[1:]
	}
	return m
}

// ValidateOTP returns a message when code cannot be a dispatched OTP.
func ValidateOTP(code string) string {
	switch {
	case code == "":
		return "Please enter the OTP"
	case !otpPattern.MatchString(code):
		return "OTP must be 6 digits"
	}
	return ""
}
