package httpapi

import (
	"errors"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/metrics"
	"github.com/goccy/go-json"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type signupResponse struct {
	Message  string `json:"message"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, validationDetail(err))
		return
	}

	u, err := s.svc.Auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		metrics.RecordAuth("signup", "failure")
		s.writeError(w, r, err)
		return
	}

	metrics.RecordAuth("signup", "success")
	writeJSON(w, http.StatusCreated, signupResponse{
		Message:  "User created successfully",
		UserID:   u.ID,
		Username: u.UserName,
	})
}

// decodeLogin accepts the OAuth2 password form as well as a JSON body.
func decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, err
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, validationDetail(err))
		return
	}

	tok, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		metrics.RecordAuth("login", "failure")
		if errors.Is(err, common.ErrorUnauthorized) {
			writeUnauthorized(w, msgWrongPassword)
			return
		}
		s.writeError(w, r, err)
		return
	}

	metrics.RecordAuth("login", "success")
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok.AccessToken, TokenType: tok.TokenType})
}
