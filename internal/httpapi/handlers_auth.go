package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/techcare/careauth"
	"github.com/techcare/careauth/internal/accounts"
	"github.com/techcare/careauth/internal/validation"
)

type generateOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

type loginRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
	OTP    string `json:"otp" validate:"required,otp"`
}

type otpData struct {
	Mobile        string `json:"mobile"`
	OTPForDevOnly string `json:"otpForDevOnly,omitempty"`
	ExpiresIn     int64  `json:"expiresIn"`
}

type userView struct {
	UserID     string    `json:"userId"`
	ProviderID string    `json:"providerId,omitempty"`
	Name       string    `json:"name"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Mobile     string    `json:"mobile"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedOn  time.Time `json:"updatedOn"`
	Token      string    `json:"token,omitempty"`
}

func newUserView(a careauth.Account) userView {
	return userView{
		UserID:     a.ID,
		ProviderID: a.ProviderID,
		Name:       a.FullName(),
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Mobile:     a.Mobile,
		Role:       string(a.Role),
		CreatedAt:  a.CreatedAt,
		UpdatedOn:  a.UpdatedAt,
	}
}

func (a *api) generateOTP(w http.ResponseWriter, r *http.Request) {
	var req generateOTPRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		a.fail(w, r, err)
		return
	}

	issued, err := a.engine.IssueOTP(r.Context(), req.Mobile)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "OTP generated successfully",
		"data": otpData{
			Mobile:        issued.Mobile,
			OTPForDevOnly: issued.Code,
			ExpiresIn:     int64(issued.ExpiresIn / time.Second),
		},
	})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.engine.Login(r.Context(), req.Mobile, req.OTP)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	user := newUserView(res.Account)
	user.Token = res.Token.Token
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
	})
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterInput
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	account, err := a.accounts.Register(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully.",
		"user":    newUserView(account),
	})
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		a.fail(w, r, careauth.ErrTokenMissing)
		return
	}

	account, err := a.accounts.Me(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserView(account)})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if err := a.engine.Logout(r.Context(), token); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
