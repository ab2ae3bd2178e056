package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "vitta/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	client  *Client
	tokens  *TokenHolder
	handler http.HandlerFunc
	// captured by the default handler
	lastAuth string
	lastPath string
	lastBody map[string]any
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.handler = nil
	s.lastAuth = ""
	s.lastPath = ""
	s.lastBody = nil
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastAuth = r.Header.Get("Authorization")
		s.lastPath = r.URL.Path
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&s.lastBody)
		}
		if s.handler != nil {
			s.handler(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	s.tokens = NewTokenHolder()
	s.client = New(s.server.URL, WithTokenSource(s.tokens))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (s *ClientSuite) TestBearerHeader() {
	s.Run("absent while unauthenticated", func() {
		_, err := s.client.Me(context.Background())
		s.NoError(err)
		s.Empty(s.lastAuth)
	})

	s.Run("carried once a token is held", func() {
		s.tokens.Set("tok-abc")
		_, err := s.client.Me(context.Background())
		s.NoError(err)
		s.Equal("Bearer tok-abc", s.lastAuth)
	})
}

func (s *ClientSuite) TestLogin() {
	s.Run("decodes the token grant", func() {
		s.respond(http.StatusOK, `{"access_token":"t1","token_type":"bearer","user_name":"Ada Lovelace","is_admin":true}`)
		grant, err := s.client.Login(context.Background(), LoginRequest{Email: "ada@vitta.com", Password: "pw"})
		s.Require().NoError(err)
		s.Equal("t1", grant.AccessToken)
		s.Equal("Ada Lovelace", grant.UserName)
		s.True(grant.IsAdmin)
		s.Equal("/auth/login", s.lastPath)
	})

	s.Run("maps the legacy credential rejection", func() {
		s.respond(http.StatusUnauthorized, `{"detail":"Incorrect email or password"}`)
		_, err := s.client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "wrong"})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidCredentials))
		s.Equal("Incorrect email or password", err.Error())
	})

	s.Run("rejects malformed input before the wire", func() {
		_, err := s.client.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "pw"})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *ClientSuite) TestRegisterValidation() {
	s.Run("opening balance below minimum never leaves the client", func() {
		s.lastPath = ""
		_, err := s.client.Register(context.Background(), RegisterRequest{
			FullName:       "Ada Lovelace",
			Email:          "ada@vitta.com",
			Password:       "secret99",
			OpeningBalance: 200,
			AccountType:    "savings",
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
		s.Empty(s.lastPath, "no request was sent")
	})

	s.Run("duplicate email maps to a stable code", func() {
		s.respond(http.StatusBadRequest, `{"detail":"Email already registered"}`)
		_, err := s.client.Register(context.Background(), RegisterRequest{
			FullName:       "Ada Lovelace",
			Email:          "ada@vitta.com",
			Password:       "secret99",
			OpeningBalance: 500,
			AccountType:    "savings",
		})
		s.True(dErrors.Is(err, dErrors.CodeEmailTaken))
	})
}

func (s *ClientSuite) TestVerifyPIN() {
	s.Run("pin not set is a distinguished code, not a 401 session clear", func() {
		s.respond(http.StatusBadRequest, `{"detail":"PIN not set"}`)
		err := s.client.VerifyPIN(context.Background(), "1234")
		s.True(dErrors.Is(err, dErrors.CodePINNotSet))
		s.False(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("wrong pin maps to invalid_secret even on 401", func() {
		s.respond(http.StatusUnauthorized, `{"detail":"Incorrect PIN"}`)
		err := s.client.VerifyPIN(context.Background(), "1234")
		s.True(dErrors.Is(err, dErrors.CodeInvalidSecret))
	})

	s.Run("client refuses non-numeric or short pins locally", func() {
		s.True(dErrors.Is(s.client.VerifyPIN(context.Background(), "12a4"), dErrors.CodeValidation))
		s.True(dErrors.Is(s.client.VerifyPIN(context.Background(), "123"), dErrors.CodeValidation))
	})

	s.Run("sends the pin payload", func() {
		s.handler = nil
		err := s.client.VerifyPIN(context.Background(), "1234")
		s.Require().NoError(err)
		s.Equal("/auth/verify-pin", s.lastPath)
		s.Equal("1234", s.lastBody["pin"])
	})
}

func (s *ClientSuite) TestResetFlowEndpoints() {
	s.Require().NoError(s.client.ForgotPassword(context.Background(), "user@x.com"))
	s.Equal("/auth/forgot-password", s.lastPath)
	s.Equal("user@x.com", s.lastBody["email"])

	s.Require().NoError(s.client.VerifyResetOTP(context.Background(), "user@x.com", "123456"))
	s.Equal("/auth/verify-reset-otp", s.lastPath)
	s.Equal("123456", s.lastBody["otp"])

	s.Require().NoError(s.client.ResetPassword(context.Background(), "user@x.com", "123456", "newsecret"))
	s.Equal("/auth/reset-password", s.lastPath)
	s.Equal("newsecret", s.lastBody["new_password"])
}

func (s *ClientSuite) TestUnreachableBackend() {
	dead := New("http://127.0.0.1:1") // nothing listens there
	_, err := dead.Me(context.Background())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))
}

func (s *ClientSuite) TestAdminOneShots() {
	s.respond(http.StatusOK, `{"message":"request recorded"}`)
	out, err := s.client.RequestDeletion(context.Background(), "pw", "leaving")
	s.Require().NoError(err)
	s.Equal("request recorded", out.Message)
	s.Equal("/auth/deletion-request", s.lastPath)

	_, err = s.client.PromoteUser(context.Background(), "pw", "peer@vitta.com")
	s.Require().NoError(err)
	s.Equal("/auth/promote-user", s.lastPath)
	s.Equal("peer@vitta.com", s.lastBody["target_email"])

	_, err = s.client.DemoteUser(context.Background(), "pw", "peer@vitta.com")
	s.Require().NoError(err)
	s.Equal("/auth/demote-user", s.lastPath)
}
