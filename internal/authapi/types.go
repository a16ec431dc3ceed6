package authapi

// SendOTPResponse is the body of auth/send-otp. A cooling-down dispatch comes
// back with Success=false and ShouldRedirect=true.
type SendOTPResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	ShouldRedirect bool   `json:"shouldRedirect,omitempty"`
	RetryAfter     *int   `json:"retryAfter,omitempty"`
}

// VerifyOTPResponse is the body of a successful auth/verify-otp.
type VerifyOTPResponse struct {
	Message     string `json:"message"`
	Token       string `json:"token"`
	OrganizerID *int64 `json:"organizerId"`
}

// NeedsProfile reports whether the organizer still has to complete their
// profile before reaching the dashboard.
func (r *VerifyOTPResponse) NeedsProfile() bool {
	return r.OrganizerID == nil
}

// SignUpRequest is the organizer profile submitted to auth/sign-up.
type SignUpRequest struct {
	MobileNumber string `json:"mobileNumber"`
	Name         string `json:"name" validate:"required,min=2"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Organization string `json:"organizationName,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
}

// SignUpResponse is the body of auth/sign-up.
type SignUpResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	ShouldRedirect bool   `json:"shouldRedirect,omitempty"`
}

// Organizer is the profile returned by organizer/profile.
type Organizer struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	MobileNumber       string `json:"mobileNumber"`
	Email              string `json:"email,omitempty"`
	OrganizationName   string `json:"organizationName,omitempty"`
	VerificationStatus string `json:"verificationStatus,omitempty"`
}
