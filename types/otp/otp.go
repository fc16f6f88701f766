package otp

// VerifyEmailRequest verifies an email OTP code
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResendOTPRequest requests a fresh email OTP
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OTPResponse is the payload returned by OTP endpoints
type OTPResponse struct {
	Message      string `json:"message"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	Success      bool   `json:"success"`
	AttemptsLeft *int   `json:"attempts_left,omitempty"`
}
