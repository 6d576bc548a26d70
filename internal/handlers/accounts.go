package handlers

import (
	"net/http"
	"strconv"

	"expense-ledger/internal/apperr"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Msg    string `json:"msg"`
	UserID int64  `json:"user_id"`
}

// Register handles POST /expense/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.creds.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{Msg: "User registered", UserID: id})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /token. It takes an OAuth2 password-grant form; a JSON
// body with the same fields is also accepted.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	username, password, err := readLoginForm(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.creds.Authenticate(r.Context(), username, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(strconv.FormatInt(user.ID, 10), h.opts.TokenTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func readLoginForm(w http.ResponseWriter, r *http.Request) (string, string, error) {
	var username, password string
	if isJSON(r) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			return "", "", err
		}
		username, password = req.Username, req.Password
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return "", "", apperr.Wrap(apperr.KindValidation, "Invalid form body", err)
		}
		username, password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}
	if username == "" || password == "" {
		return "", "", apperr.Validation("username and password are required")
	}
	return username, password, nil
}
