package api

// TokenGrant is the backend's answer to a successful login or registration.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserName    string `json:"user_name"`
	IsAdmin     bool   `json:"is_admin"`
}

// Identity is the authoritative whoami response. Fields here, and only
// fields here, may gate client behavior; mirrored storage copies are
// display fallback.
type Identity struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// Message is the generic acknowledgment body for one-shot operations.
type Message struct {
	Message string `json:"message"`
}
