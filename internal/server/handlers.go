package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/audit"
	"github.com/auditly/invoice-auditor/internal/history"
	"github.com/auditly/invoice-auditor/internal/models"
	"github.com/auditly/invoice-auditor/internal/policy"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	auditor  *audit.Auditor
	policies *policy.Manager
	store    history.Store
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(auditor *audit.Auditor, policies *policy.Manager, store history.Store, logger *zap.Logger) *Handlers {
	return &Handlers{
		auditor:  auditor,
		policies: policies,
		store:    store,
		logger:   logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// AuditInvoice handles POST /api/v1/audit. The body is extracted
// invoice data as produced by an OCR pipeline; normalization never
// rejects it, so the only client error is malformed JSON.
func (h *Handlers) AuditInvoice(c *gin.Context) {
	var extracted models.ExtractedData
	if err := c.ShouldBindJSON(&extracted); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	inv := extracted.ToInvoice(time.Now(), h.logger)
	pol := h.policies.Get(inv.Vendor.Name)

	result, err := h.auditor.Audit(c.Request.Context(), inv, pol)
	if err != nil {
		h.logger.Error("Audit request failed",
			zap.String("invoice_id", inv.InvoiceID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "audit failed"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListPolicies handles GET /api/v1/policies.
func (h *Handlers) ListPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.policies.Vendors()})
}

// ListHistory handles GET /api/v1/history.
func (h *Handlers) ListHistory(c *gin.Context) {
	records, err := h.store.All(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read audit history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}
