package api

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vitta/pkg/domain-errors"
)

// errorBody is the backend's error envelope. Newer backend builds return a
// stable machine code alongside the human detail; legacy builds send free
// text only, which we translate through detailCodes below. Call sites match
// domain codes, never message text.
type errorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// detailCodes maps the legacy free-text detail strings the backend is known
// to emit onto stable codes. The strings are part of the deployed wire
// contract and must match the backend byte for byte.
var detailCodes = map[string]dErrors.Code{
	"PIN not set":                          dErrors.CodePINNotSet,
	"Incorrect PIN":                        dErrors.CodeInvalidSecret,
	"Incorrect email or password":          dErrors.CodeInvalidCredentials,
	"Email already registered":             dErrors.CodeEmailTaken,
	"Opening balance must be at least 500": dErrors.CodeBalanceTooLow,
	"Account suspended":                    dErrors.CodeAccountSuspended,
	"Invalid OTP":                          dErrors.CodeOTPInvalid,
	"OTP expired":                          dErrors.CodeOTPExpired,
	"PIN must be 4 digits":                 dErrors.CodeValidation,
}

// codeNames recognizes structured codes when the backend sends them.
var codeNames = map[string]dErrors.Code{
	"PIN_NOT_SET":         dErrors.CodePINNotSet,
	"INVALID_SECRET":      dErrors.CodeInvalidSecret,
	"INVALID_CREDENTIALS": dErrors.CodeInvalidCredentials,
	"EMAIL_TAKEN":         dErrors.CodeEmailTaken,
	"BALANCE_TOO_LOW":     dErrors.CodeBalanceTooLow,
	"ACCOUNT_SUSPENDED":   dErrors.CodeAccountSuspended,
	"OTP_INVALID":         dErrors.CodeOTPInvalid,
	"OTP_EXPIRED":         dErrors.CodeOTPExpired,
	"VALIDATION_FAILED":   dErrors.CodeValidation,
}

// decodeError turns a non-2xx response into a domain error. Preference
// order: structured code field, known legacy detail string, HTTP status
// class. The server message is preserved verbatim either way.
func decodeError(status int, payload []byte) error {
	var body errorBody
	_ = json.Unmarshal(payload, &body)

	if code, ok := codeNames[body.Code]; ok {
		return dErrors.New(code, body.Detail)
	}
	if code, ok := detailCodes[body.Detail]; ok {
		return dErrors.New(code, body.Detail)
	}
	return dErrors.New(statusCode(status), body.Detail)
}

func statusCode(status int) dErrors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return dErrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return dErrors.CodeForbidden
	case status == http.StatusNotFound:
		return dErrors.CodeNotFound
	case status == http.StatusConflict:
		return dErrors.CodeConflict
	case status >= 400 && status < 500:
		return dErrors.CodeValidation
	default:
		return dErrors.CodeUnavailable
	}
}

func asDomain(err error, target **dErrors.Error) bool {
	return errors.As(err, target)
}
