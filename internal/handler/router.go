package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	aiHandler "github.com/zhouzirui/storycraft/backend/internal/handler/ai"
	authHandler "github.com/zhouzirui/storycraft/backend/internal/handler/auth"
	middlewarePkg "github.com/zhouzirui/storycraft/backend/internal/middleware"
	aiService "github.com/zhouzirui/storycraft/backend/internal/service/ai"
	authService "github.com/zhouzirui/storycraft/backend/internal/service/auth"
	"github.com/zhouzirui/storycraft/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(authMgr *authService.Manager, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		if authMgr != nil {
			authHandler.New(authMgr).RegisterRoutes(api)
		}

		if aiSvc != nil {
			aiHandler.New(aiSvc).RegisterRoutes(api)
		} else {
			api.HandleFunc("/ai/*", func(w http.ResponseWriter, r *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai service unavailable")
			})
		}
	})

	return r
}
