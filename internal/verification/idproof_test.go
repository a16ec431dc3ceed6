package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/model"
)

func TestValidateIDNumber(t *testing.T) {
	tests := []struct {
		name     string
		idType   string
		idNumber string
		expected string
	}{
		{"aadhaar valid", model.IDTypeAadhaar, "123456789012", ""},
		{"aadhaar short", model.IDTypeAadhaar, "12345", "Aadhaar number must be exactly 12 digits"},
		{"aadhaar letters", model.IDTypeAadhaar, "12345678901A", "Aadhaar number must be exactly 12 digits"},
		{"passport lower case", model.IDTypePassport, "a1234567", ""},
		{"passport two letters", model.IDTypePassport, "AB123456", "Passport number must be 1 letter followed by 7 digits (e.g., A1234567)"},
		{"dl valid", model.IDTypeDL, "mh1420110062821", ""},
		{"dl too short", model.IDTypeDL, "MH14201", "Driver's license must be 10-20 alphanumeric characters"},
		{"dl punctuation", model.IDTypeDL, "MH-14-2011-0062821", "Driver's license must be 10-20 alphanumeric characters"},
		{"other valid", model.IDTypeOther, "X-123", ""},
		{"other short", model.IDTypeOther, "X12", "ID number must be at least 5 characters"},
		{"missing number", model.IDTypeAadhaar, "", "ID number is required"},
		{"missing type", "", "123456789012", "Please select an ID type first"},
		{"unknown type", "VOTER", "123456789012", "Please select an ID type first"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ValidateIDNumber(tc.idType, tc.idNumber))
		})
	}
}

func TestIDFormatHint(t *testing.T) {
	assert.Equal(t, "12 digits (e.g., 123456789012)", IDFormatHint(model.IDTypeAadhaar))
	assert.Equal(t, "At least 5 characters", IDFormatHint(model.IDTypeOther))
	assert.Equal(t, "Select an ID type to see the expected format", IDFormatHint(""))
}
