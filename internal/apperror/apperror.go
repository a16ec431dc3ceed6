// Package apperror maps validator errors to flat field keys and the messages
// shown next to form fields.
package apperror

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TagIDNumber is reported by the id_number rule. Its param carries the
// message, since the wording depends on the sibling id_type.
const TagIDNumber = "idnumber"

const (
	msgVerifierTokenRequired = "Verifier token is required"
	msgVerifierIDRequired    = "Verifier ID is required"
	msgNameRequired          = "Organizer name is required"
	msgNameTooShort          = "Name must be at least 2 characters"
	msgFullName              = "Please enter full name (first and last name)"
	msgContactRequired       = "Contact number is required"
	msgContactInvalid        = "Please enter a valid 10-digit mobile number"
	msgIDTypeRequired        = "ID type is required"
	msgIDTypeInvalid         = "Please select a valid ID type"
	msgIDNumberRequired      = "ID number is required"
	msgIDPhotoRequired       = "ID photo is required"
	msgOrganizerPhoto        = "Organizer photo at venue is required"
	msgVenueNameRequired     = "Venue name is required"
	msgVenueNameTooShort     = "Venue name must be at least 2 characters"
	msgVenueAddressRequired  = "Venue address is required"
	msgVenueAddressTooShort  = "Venue address must be at least 10 characters"
	msgVenuePhotosRequired   = "Venue photos are required"
	msgVenuePhotosTooFew     = "At least 2 venue photos are required"
	msgPhotoKeyRequired      = "Photo is required"
	msgPhotoTypeInvalid      = "Invalid photo type"
	msgLatitudeRequired      = "Latitude is required"
	msgLatitudeRange         = "Latitude must be between -90 and 90"
	msgLongitudeRequired     = "Longitude is required"
	msgLongitudeRange        = "Longitude must be between -180 and 180"
	msgAccuracyRequired      = "GPS accuracy is required"
	msgAccuracyNegative      = "GPS accuracy cannot be negative"
	msgPreparednessRequired  = "Please answer this venue preparedness question"
	msgBrandingRequired      = "Please confirm whether organizer branding is present"
	msgDiscrepanciesTooLong  = "Discrepancies must be at most 500 characters"
)

// customErrors is keyed by schema path (json names, array indices removed)
// plus the failing tag.
var customErrors = map[string]string{
	"verifier_token.required": msgVerifierTokenRequired,
	"verifier_id.required":    msgVerifierIDRequired,

	"organizer_verification.name.required":                      msgNameRequired,
	"organizer_verification.name.min":                           msgNameTooShort,
	"organizer_verification.name.fullname":                      msgFullName,
	"organizer_verification.contact_number.required":            msgContactRequired,
	"organizer_verification.contact_number.mobile":              msgContactInvalid,
	"organizer_verification.id_proof.id_type.required":          msgIDTypeRequired,
	"organizer_verification.id_proof.id_type.oneof":             msgIDTypeInvalid,
	"organizer_verification.id_proof.id_number.required":        msgIDNumberRequired,
	"organizer_verification.id_proof.id_photo_key.required":     msgIDPhotoRequired,
	"organizer_verification.organizer_venue_photo_key.required": msgOrganizerPhoto,

	"venue_verification.venue_name.required":                                  msgVenueNameRequired,
	"venue_verification.venue_name.min":                                       msgVenueNameTooShort,
	"venue_verification.venue_address.required":                               msgVenueAddressRequired,
	"venue_verification.venue_address.min":                                    msgVenueAddressTooShort,
	"venue_verification.venue_photos.required":                                msgVenuePhotosRequired,
	"venue_verification.venue_photos.min":                                     msgVenuePhotosTooFew,
	"venue_verification.venue_photos.photo_key.required":                      msgPhotoKeyRequired,
	"venue_verification.venue_photos.photo_type.required":                     msgPhotoTypeInvalid,
	"venue_verification.venue_photos.photo_type.oneof":                        msgPhotoTypeInvalid,
	"venue_verification.venue_photos.gps_latitude.gte":                        msgLatitudeRange,
	"venue_verification.venue_photos.gps_latitude.lte":                        msgLatitudeRange,
	"venue_verification.venue_photos.gps_longitude.gte":                       msgLongitudeRange,
	"venue_verification.venue_photos.gps_longitude.lte":                       msgLongitudeRange,
	"venue_verification.venue_photos.gps_accuracy.gte":                        msgAccuracyNegative,
	"venue_verification.gps_location.latitude.required":                       msgLatitudeRequired,
	"venue_verification.gps_location.latitude.gte":                            msgLatitudeRange,
	"venue_verification.gps_location.latitude.lte":                            msgLatitudeRange,
	"venue_verification.gps_location.longitude.required":                      msgLongitudeRequired,
	"venue_verification.gps_location.longitude.gte":                           msgLongitudeRange,
	"venue_verification.gps_location.longitude.lte":                           msgLongitudeRange,
	"venue_verification.gps_location.accuracy.required":                       msgAccuracyRequired,
	"venue_verification.gps_location.accuracy.gte":                            msgAccuracyNegative,
	"venue_verification.venue_preparedness.seating_available.required":        msgPreparednessRequired,
	"venue_verification.venue_preparedness.washroom_available.required":       msgPreparednessRequired,
	"venue_verification.venue_preparedness.drinking_water_available.required": msgPreparednessRequired,
	"venue_verification.venue_preparedness.first_aid_available.required":      msgPreparednessRequired,

	"authenticity_checks.branding_present.required": msgBrandingRequired,
	"authenticity_checks.discrepancies.max":         msgDiscrepanciesTooLong,
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// FlattenNamespace turns a validator namespace such as
// "Document.venue_verification.venue_photos[0].photo_key" into the flat error
// key "venue_verification_venue_photos_0_photo_key" and the schema path
// "venue_verification.venue_photos.photo_key".
func FlattenNamespace(ns string) (key, path string) {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	} else {
		ns = ""
	}
	key = strings.ReplaceAll(indexPattern.ReplaceAllString(ns, ".$1"), ".", "_")
	path = indexPattern.ReplaceAllString(ns, "")
	return key, path
}

// Message returns the user-facing message for tag failing on the field at
// schema path.
func Message(path, tag, param string) string {
	if tag == TagIDNumber && param != "" {
		return param
	}
	if msg, ok := customErrors[path+"."+tag]; ok {
		return msg
	}
	return genericMessage(tag, param)
}

// CustomValidationError converts validator errors into a flat key → message
// map keeping the first message per field.
func CustomValidationError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) {
		return errMap
	}
	for _, e := range validationErr {
		key, path := FlattenNamespace(e.Namespace())
		if _, seen := errMap[key]; seen {
			continue
		}
		errMap[key] = Message(path, e.Tag(), e.Param())
	}
	return errMap
}

func genericMessage(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("Must be at most %s characters", param)
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", param)
	case "email":
		return "Please enter a valid email address"
	case "oneof":
		return "Please select a valid option"
	case "gte":
		return fmt.Sprintf("Must be at least %s", param)
	case "lte":
		return fmt.Sprintf("Must be at most %s", param)
	case "mobile":
		return "Please enter a valid mobile number"
	}
	return "Invalid value"
}
