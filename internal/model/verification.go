// Package model holds the field-verification document submitted by a
// verifier after visiting an organizer's venue.
package model

// ID document kinds accepted for organizer identity proof.
const (
	IDTypeAadhaar  = "AADHAAR"
	IDTypeDL       = "DL"
	IDTypePassport = "PASSPORT"
	IDTypeOther    = "OTHER"
)

// PhotoTypeOther is the only venue photo category.
const PhotoTypeOther = "OTHER"

type IDProof struct {
	IDType     string `json:"id_type" validate:"required,oneof=AADHAAR DL PASSPORT OTHER"`
	IDNumber   string `json:"id_number" validate:"required"`
	IDPhotoKey string `json:"id_photo_key" validate:"required"`
}

type OrganizerVerification struct {
	Name                   string  `json:"name" validate:"required,min=2,fullname"`
	ContactNumber          string  `json:"contact_number" validate:"required,mobile"`
	IDProof                IDProof `json:"id_proof"`
	OrganizerVenuePhotoKey string  `json:"organizer_venue_photo_key" validate:"required"`
}

type VenuePhoto struct {
	PhotoKey     string   `json:"photo_key" validate:"required"`
	PhotoType    string   `json:"photo_type" validate:"required,oneof=OTHER"`
	GPSLatitude  *float64 `json:"gps_latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	GPSLongitude *float64 `json:"gps_longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	GPSAccuracy  *float64 `json:"gps_accuracy,omitempty" validate:"omitempty,gte=0"`
}

type GPSLocation struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Accuracy  *float64 `json:"accuracy" validate:"required,gte=0"`
}

// VenuePreparedness answers are required; false is a valid answer.
type VenuePreparedness struct {
	SeatingAvailable       *bool `json:"seating_available" validate:"required"`
	WashroomAvailable      *bool `json:"washroom_available" validate:"required"`
	DrinkingWaterAvailable *bool `json:"drinking_water_available" validate:"required"`
	FirstAidAvailable      *bool `json:"first_aid_available" validate:"required"`
}

type VenueVerification struct {
	VenueName         string            `json:"venue_name" validate:"required,min=2"`
	VenueAddress      string            `json:"venue_address" validate:"required,min=10"`
	VenuePhotos       []VenuePhoto      `json:"venue_photos" validate:"required,min=2,dive"`
	GPSLocation       GPSLocation       `json:"gps_location"`
	VenuePreparedness VenuePreparedness `json:"venue_preparedness"`
}

type AuthenticityChecks struct {
	BrandingPresent *bool  `json:"branding_present" validate:"required"`
	Discrepancies   string `json:"discrepancies,omitempty" validate:"max=500"`
}

// Document is the full verification form.
type Document struct {
	VerifierToken         string                `json:"verifier_token" validate:"required"`
	VerifierID            string                `json:"verifier_id" validate:"required"`
	OrganizerVerification OrganizerVerification `json:"organizer_verification"`
	VenueVerification     VenueVerification     `json:"venue_verification"`
	AuthenticityChecks    AuthenticityChecks    `json:"authenticity_checks"`
}
