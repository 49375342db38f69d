package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"

	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/history"
	"github.com/Skufu/medirisk/internal/metrics"
	"github.com/Skufu/medirisk/internal/scoring"
)

func registerValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("notblank", validators.NotBlank)
}

type handler struct {
	registry  *scoring.Registry
	history   history.Store
	assistant *chat.Assistant
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func (h *handler) register(g *gin.RouterGroup) {
	g.GET("/models", h.listModels)
	g.POST("/predict/:domain", h.predict)

	g.GET("/history", h.listHistory)
	g.DELETE("/history/:id", h.deleteHistory)

	g.GET("/chat", h.listChat)
	g.POST("/chat", h.sendChat)
	g.DELETE("/chat", h.clearChat)
	g.GET("/chat/status", h.chatStatus)
	g.POST("/chat/reconnect", h.chatReconnect)
}

type modelFeature struct {
	Name   scoring.Feature `json:"name"`
	Weight float64         `json:"weight"`
}

type modelView struct {
	Domain   string         `json:"domain"`
	Bias     float64        `json:"bias"`
	Features []modelFeature `json:"features"`
}

func (h *handler) listModels(c *gin.Context) {
	out := []modelView{}
	for _, domain := range h.registry.Domains() {
		m, err := h.registry.Lookup(domain)
		if err != nil {
			continue
		}
		view := modelView{Domain: domain, Bias: m.Bias()}
		weights := m.Weights()
		for i, name := range m.FeatureNames() {
			view.Features = append(view.Features, modelFeature{Name: name, Weight: weights[i]})
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

type predictRequest struct {
	Features scoring.Features `json:"features" binding:"required"`
	// Save defaults to true.
	Save *bool `json:"save"`
}

type predictResponse struct {
	Domain      string          `json:"domain"`
	Probability float64         `json:"probability"`
	IsPositive  bool            `json:"isPositive"`
	Warnings    []scoring.Issue `json:"warnings"`
	Saved       bool            `json:"saved"`
	HistoryID   int64           `json:"historyId,omitempty"`
}

func (h *handler) predict(c *gin.Context) {
	domain := c.Param("domain")
	model, err := h.registry.Lookup(domain)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown prediction domain"})
		return
	}

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result := scoring.Predict(model, req.Features)
	issues := scoring.Validate(model, req.Features)
	if issues == nil {
		issues = []scoring.Issue{}
	}

	h.metrics.ObservePrediction(domain, result.IsPositive)
	for _, issue := range issues {
		h.metrics.ObserveWarning(domain, string(issue.Kind))
	}

	resp := predictResponse{
		Domain:      domain,
		Probability: result.Probability,
		IsPositive:  result.IsPositive,
		Warnings:    issues,
	}

	if req.Save == nil || *req.Save {
		resp.HistoryID, resp.Saved = h.save(c, domain, req.Features, result)
	}
	c.JSON(http.StatusOK, resp)
}

// save records the prediction; failures are logged and reported as unsaved.
func (h *handler) save(c *gin.Context, domain string, fs scoring.Features, result scoring.Result) (int64, bool) {
	raw, err := json.Marshal(fs)
	if err != nil {
		h.logger.Error("encode prediction input", zap.String("domain", domain), zap.Error(err))
		return 0, false
	}
	rec, err := h.history.Save(c.Request.Context(), domain, raw, result)
	if err != nil {
		h.logger.Error("save prediction", zap.String("domain", domain), zap.Error(err))
		return 0, false
	}
	return rec.ID, true
}

func (h *handler) listHistory(c *gin.Context) {
	var (
		records []history.Record
		err     error
	)
	if t := c.Query("type"); t != "" && t != "all" {
		records, err = h.history.ByType(c.Request.Context(), t)
	} else {
		records, err = h.history.All(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (h *handler) deleteHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.history.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
			return
		}
		h.logger.Error("delete history", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete prediction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *handler) listChat(c *gin.Context) {
	msgs, err := h.assistant.Transcript().All(c.Request.Context())
	if err != nil {
		h.logger.Error("load chat", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "status": h.assistant.Status()})
}

type chatRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

func (h *handler) sendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
		return
	}

	ex, err := h.assistant.Send(c.Request.Context(), req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
			return
		}
		h.logger.Error("send chat", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	h.metrics.ObserveChatReply(ex.Offline)
	c.JSON(http.StatusOK, ex)
}

func (h *handler) clearChat(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.assistant.Transcript().Clear(ctx); err != nil {
		h.logger.Error("clear chat", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear chat"})
		return
	}
	h.listChat(c)
}

func (h *handler) chatStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Status())
}

func (h *handler) chatReconnect(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Reconnect())
}
