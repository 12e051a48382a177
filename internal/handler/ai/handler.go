package ai

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/storycraft/backend/internal/apiclient"
	"github.com/zhouzirui/storycraft/backend/internal/model/story"
	aiService "github.com/zhouzirui/storycraft/backend/internal/service/ai"
	"github.com/zhouzirui/storycraft/backend/pkg/utils"
)

// Handler AI 写作辅助的HTTP处理器
type Handler struct {
	svc *aiService.Service
}

// New 创建 AI 处理器
func New(svc *aiService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册 /ai 与 /health 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/enhance", h.handleEnhance)
		r.Post("/title", h.handleTitle)
	})
	r.Get("/health", h.handleHealth)
}

type analyzeRequest struct {
	Content   string `json:"content"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload analyzeRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		result *story.AnalysisResult
		err    error
	)
	if payload.Provider != "" {
		settings := aiService.ParseSettings(payload.Provider, payload.ModelName, payload.APIKey)
		result, err = h.svc.Analyze(r.Context(), payload.Content, settings)
	} else {
		result, err = h.svc.AnalyzeStory(r.Context(), payload.Content)
	}
	if err != nil {
		respondAIError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Enhance(r.Context(), payload.Content)
	if err != nil {
		respondAIError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTitle(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title, err := h.svc.GenerateTitle(r.Context(), payload.Content)
	if err != nil {
		respondAIError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, story.TitleResult{Title: title})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Health(r.Context())
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	utils.RespondJSON(w, code, map[string]bool{
		"backend": status.Backend,
		"model":   status.Model,
		"healthy": status.Healthy(),
	})
}

// respondAIError 将 AI 服务错误映射为 HTTP 状态码
func respondAIError(w http.ResponseWriter, err error) {
	switch {
	case aiService.IsPrecondition(err):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apiclient.ErrSessionExpired):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	}
}
