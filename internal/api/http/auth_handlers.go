package http

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Subject     string `json:"subject"`
	Name        string `json:"name,omitempty"`
}

// POST /auth/login  { "username": "...", "password": "..." }
// The configured admin logs in by user name, judges by email.
func LoginHandler(svc *competition.Service, a *auth.AuthService, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}

		var out loginResponse
		if strings.TrimSpace(req.Username) == cfg.AdminUser {
			if bcrypt.CompareHashAndPassword([]byte(cfg.AdminPassHash), []byte(req.Password)) != nil {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			out = loginResponse{Role: rbac.RoleAdmin, Subject: cfg.AdminUser}
		} else {
			j, err := svc.Authenticate(r.Context(), req.Username, req.Password)
			if errors.Is(err, competition.ErrInvalidCredentials) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "login failed", http.StatusInternalServerError)
				return
			}
			out = loginResponse{Role: rbac.RoleJudge, Subject: j.ID, Name: j.Name}
		}

		tok, err := a.IssueJWT(out.Subject, out.Role, out.Name)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		out.AccessToken = tok
		writeJSON(w, http.StatusOK, out)
	}
}
