package api

// Request payloads for the auth surface. Field names follow the backend's
// JSON contract; validate tags are checked client-side before anything goes
// on the wire so obviously malformed input never costs a round trip.

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	// AdminLogin is a passthrough hint from the admin sign-in surface. The
	// backend contract for it is unresolved; the client forwards it
	// unchanged and makes no authorization decision on it.
	AdminLogin bool `json:"is_admin_login,omitempty"`
}

type RegisterRequest struct {
	FullName       string  `json:"full_name" validate:"required,notblank,max=255"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Password       string  `json:"password" validate:"required,min=6"`
	OpeningBalance float64 `json:"opening_balance" validate:"gte=500"`
	AccountType    string  `json:"account_type" validate:"required,oneof=savings current"`
}

type pinRequest struct {
	PIN string `json:"pin" validate:"required,len=4,numeric"`
}

type changePasswordOTPRequest struct {
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyResetOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type deletionRequest struct {
	Password string `json:"password" validate:"required"`
	Reason   string `json:"reason" validate:"max=1000"`
}

type roleChangeRequest struct {
	Password    string `json:"password" validate:"required"`
	TargetEmail string `json:"target_email" validate:"required,email"`
}
