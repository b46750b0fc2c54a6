package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"parkhub/internal/auth"
	"parkhub/internal/db"
	"parkhub/internal/repository"
	"parkhub/internal/service"
)

type AuthHandler struct {
	Service  *service.AuthService
	Sender   *service.SenderService
	Sessions *auth.Manager
	Render   *Renderer
	BaseURL  string
}

func NewAuthHandler(svc *service.AuthService, sender *service.SenderService, sessions *auth.Manager, render *Renderer, baseURL string) *AuthHandler {
	return &AuthHandler{
		Service:  svc,
		Sender:   sender,
		Sessions: sessions,
		Render:   render,
		BaseURL:  baseURL,
	}
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, "register.html", nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")
	phone := r.FormValue("phone")
	if username == "" || email == "" || password == "" {
		SetFlash(w, "Username, email and password are required")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	_, err := h.Service.Register(r.Context(), username, email, password, phone)
	if errors.Is(err, service.ErrUserExists) {
		SetFlash(w, "Username or email already exists")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Printf("Register: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	SetFlash(w, "Account created, please log in")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, "login.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.Service.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		SetFlash(w, "Invalid username or password")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Printf("Login: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	session := auth.Session{UserID: user.ID, Username: user.Username, Role: user.Role}
	if err := h.Sessions.Issue(w, session); err != nil {
		log.Printf("Login: issuing session: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user.Role == db.RoleAdmin {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/park", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) AccountPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, "account.html", nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	session, _ := auth.SessionFromContext(r.Context())
	err := h.Service.ChangePassword(r.Context(), session.UserID, r.FormValue("old_password"), r.FormValue("new_password"))
	switch {
	case errors.Is(err, service.ErrAdminLocked):
		SetFlash(w, "The admin password cannot be changed here")
	case errors.Is(err, service.ErrInvalidCredentials):
		SetFlash(w, "Current password is incorrect")
	case err != nil:
		log.Printf("ChangePassword: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	default:
		SetFlash(w, "Password updated")
	}
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, "forgot_password.html", nil)
}

// ForgotPassword always flashes the same message so the form does not reveal
// which emails have accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	token, user, err := h.Service.CreateResetToken(r.Context(), email)
	if err == nil {
		link := fmt.Sprintf("%s/reset_password/%s", h.BaseURL, token)
		if err := h.Sender.SendPasswordReset(user, link); err != nil {
			log.Printf("ForgotPassword: sending reset link: %v", err)
		}
	} else if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, service.ErrAdminLocked) {
		log.Printf("ForgotPassword: %v", err)
	}
	SetFlash(w, "If that email has an account, a reset link has been sent")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	h.Render.Render(w, r, "reset_password.html", map[string]string{"Token": token})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	token := mux.Vars(r)["token"]
	err := h.Service.ResetPassword(r.Context(), token, r.FormValue("password"))
	if errors.Is(err, service.ErrInvalidResetToken) || errors.Is(err, service.ErrAdminLocked) {
		SetFlash(w, "Invalid or expired reset link")
		http.Redirect(w, r, "/forgot_password", http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Printf("ResetPassword: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	SetFlash(w, "Password updated, please log in")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
