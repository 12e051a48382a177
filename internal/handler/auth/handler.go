package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/storycraft/backend/internal/apiclient"
	"github.com/zhouzirui/storycraft/backend/internal/model/user"
	authService "github.com/zhouzirui/storycraft/backend/internal/service/auth"
	"github.com/zhouzirui/storycraft/backend/pkg/utils"
)

// Handler 会话相关的HTTP处理器
type Handler struct {
	mgr *authService.Manager
}

// New 创建会话处理器
func New(mgr *authService.Manager) *Handler {
	return &Handler{mgr: mgr}
}

// RegisterRoutes 注册 /auth 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/register", h.handleRegister)
		r.Post("/logout", h.handleLogout)
		r.Get("/session", h.handleSession)
		r.Post("/refresh", h.handleRefresh)
		r.Put("/profile", h.handleProfile)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := utils.DecodeJSON(w, r, &creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.mgr.Login(r.Context(), creds)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var data user.RegisterData
	if err := utils.DecodeJSON(w, r, &data); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(data.Email) == "" || data.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.mgr.Register(r.Context(), data)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.mgr.Logout(r.Context())
	utils.RespondJSON(w, http.StatusOK, h.mgr.Session())
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.mgr.Session())
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Refresh(r.Context()); err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.mgr.Session())
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	var patch user.Patch
	if err := utils.DecodeJSON(w, r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.mgr.UpdateProfile(r.Context(), patch)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

// respondAuthError 将会话错误映射为 HTTP 状态码
func respondAuthError(w http.ResponseWriter, err error) {
	var (
		loginErr  *authService.LoginError
		statusErr *apiclient.StatusError
		invalid   *authService.ValidationError
	)
	switch {
	case errors.As(err, &loginErr):
		status := loginErr.Status
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		utils.RespondError(w, status, loginErr.Message)
	case errors.Is(err, authService.ErrNotAuthenticated),
		errors.Is(err, authService.ErrSessionExpired),
		errors.Is(err, authService.ErrRefreshFailed),
		errors.Is(err, apiclient.ErrSessionExpired):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &invalid), errors.Is(err, authService.ErrNoAccessToken):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError:
		msg := statusErr.Detail()
		if msg == "" {
			msg = http.StatusText(statusErr.StatusCode)
		}
		utils.RespondError(w, statusErr.StatusCode, msg)
	default:
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	}
}
