package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"vitta/pkg/secrets"
)

type contextKey string

const accountKey contextKey = "account"

func (b *bank) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := b.authenticate(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, acct)))
	})
}

func caller(r *http.Request) *account {
	acct, _ := r.Context().Value(accountKey).(*account)
	return acct
}

func decode(r *http.Request, into any) bool {
	return json.NewDecoder(r.Body).Decode(into) == nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func tokenGrant(token string, acct *account) map[string]any {
	return map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user_name":    acct.FullName,
		"is_admin":     acct.IsAdmin,
	}
}

func (b *bank) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		AdminLogin bool   `json:"is_admin_login"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	b.mu.Lock()
	acct, ok := b.accounts[strings.ToLower(req.Email)]
	b.mu.Unlock()
	if !ok || secrets.Verify(req.Password, acct.PasswordHash) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if acct.Suspended {
		writeDetail(w, http.StatusForbidden, "Account suspended")
		return
	}

	token, err := b.mint(acct.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	b.logger.Info("login", "email", acct.Email, "admin_hint", req.AdminLogin)
	writeJSON(w, http.StatusOK, tokenGrant(token, acct))
}

func (b *bank) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName       string  `json:"full_name"`
		Email          string  `json:"email"`
		Password       string  `json:"password"`
		OpeningBalance float64 `json:"opening_balance"`
		AccountType    string  `json:"account_type"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if req.OpeningBalance < 500 {
		writeDetail(w, http.StatusBadRequest, "Opening balance must be at least 500")
		return
	}

	email := strings.ToLower(req.Email)
	b.mu.Lock()
	if _, exists := b.accounts[email]; exists {
		b.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	passwordHash, err := secrets.Hash(req.Password)
	if err != nil {
		b.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Password cannot be empty")
		return
	}
	acct := &account{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      req.OpeningBalance,
		AccountType:  req.AccountType,
	}
	b.accounts[email] = acct
	b.mu.Unlock()

	token, err := b.mint(email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	b.hub.broadcast()
	writeJSON(w, http.StatusOK, tokenGrant(token, acct))
}

func (b *bank) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := caller(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"full_name": acct.FullName,
		"email":     acct.Email,
		"is_admin":  acct.IsAdmin,
	})
}

func (b *bank) handleVerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !decode(r, &req) || len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeDetail(w, http.StatusBadRequest, "PIN must be 4 digits")
		return
	}
	acct := caller(r)
	if acct.PINHash == "" {
		writeDetail(w, http.StatusBadRequest, "PIN not set")
		return
	}
	if secrets.Verify(req.PIN, acct.PINHash) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "PIN verified"})
}

func (b *bank) handleSetPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !decode(r, &req) || len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeDetail(w, http.StatusBadRequest, "PIN must be 4 digits")
		return
	}
	hash, err := secrets.Hash(req.PIN)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not store PIN")
		return
	}
	acct := caller(r)
	b.mu.Lock()
	acct.PINHash = hash
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "PIN set successfully"})
}

func (b *bank) handleRequestChangeOTP(w http.ResponseWriter, r *http.Request) {
	acct := caller(r)
	b.issueOTP(acct.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email address"})
}

func (b *bank) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	acct := caller(r)
	if detail := b.checkOTP(acct.Email, req.OTP, true); detail != "" {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}
	hash, err := secrets.Hash(req.NewPassword)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Password cannot be empty")
		return
	}
	b.mu.Lock()
	acct.PasswordHash = hash
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (b *bank) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	email := strings.ToLower(req.Email)
	b.mu.Lock()
	_, known := b.accounts[email]
	b.mu.Unlock()
	if known {
		b.issueOTP(email)
	}
	// Same answer either way; the endpoint must not leak which emails exist.
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email address"})
}

func (b *bank) handleVerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if detail := b.checkOTP(strings.ToLower(req.Email), req.OTP, false); detail != "" {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified"})
}

func (b *bank) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	email := strings.ToLower(req.Email)
	if detail := b.checkOTP(email, req.OTP, true); detail != "" {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}
	hash, err := secrets.Hash(req.NewPassword)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Password cannot be empty")
		return
	}
	b.mu.Lock()
	if acct, ok := b.accounts[email]; ok {
		acct.PasswordHash = hash
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (b *bank) handleDeletionRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Reason   string `json:"reason"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	acct := caller(r)
	if secrets.Verify(req.Password, acct.PasswordHash) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	b.logger.Info("deletion requested", "email", acct.Email, "reason", req.Reason)
	b.hub.broadcast()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deletion request submitted"})
}

func (b *bank) handlePromote(w http.ResponseWriter, r *http.Request) {
	b.handleRoleChange(w, r, true)
}

func (b *bank) handleDemote(w http.ResponseWriter, r *http.Request) {
	b.handleRoleChange(w, r, false)
}

func (b *bank) handleRoleChange(w http.ResponseWriter, r *http.Request, admin bool) {
	var req struct {
		Password    string `json:"password"`
		TargetEmail string `json:"target_email"`
	}
	if !decode(r, &req) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	acct := caller(r)
	if !acct.IsAdmin {
		writeDetail(w, http.StatusForbidden, "Admin privileges required")
		return
	}
	if secrets.Verify(req.Password, acct.PasswordHash) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	b.mu.Lock()
	target, ok := b.accounts[strings.ToLower(req.TargetEmail)]
	if ok {
		target.IsAdmin = admin
	}
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}

	b.hub.broadcast()
	msg := "User promoted to admin"
	if !admin {
		msg = "User demoted to customer"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}
