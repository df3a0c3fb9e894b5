package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"LF-DOCGEN/internal/resolver"
	"LF-DOCGEN/internal/services"
	"LF-DOCGEN/internal/storage"
)

type GenerateHandler struct {
	generator *services.GeneratorService
	resolver  *resolver.Resolver
}

func NewGenerateHandler(generator *services.GeneratorService, res *resolver.Resolver) *GenerateHandler {
	return &GenerateHandler{generator: generator, resolver: res}
}

type generateRequest struct {
	TemplateID  string            `json:"template_id"`
	Query       string            `json:"query"`
	CaseID      string            `json:"case_id"`
	Variables   map[string]string `json:"variables"`
	Draft       bool              `json:"draft"`
	GeneratedBy string            `json:"generated_by"`
}

// Generate fills a template by ID, or resolves one from a free-text query
// when no ID is given. Ambiguous queries come back 409 with candidates.
func (h *GenerateHandler) Generate(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.TemplateID == "" && req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template_id or query is required"})
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		tmpl, err := h.resolver.ResolveOne(c.Request.Context(), resolver.Request{
			FirmID: firm,
			Query:  req.Query,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		templateID = tmpl.ID
	}

	result, err := h.generator.Generate(c.Request.Context(), services.GenerateRequest{
		FirmID:      firm,
		TemplateID:  templateID,
		CaseID:      req.CaseID,
		Variables:   req.Variables,
		Draft:       req.Draft,
		GeneratedBy: req.GeneratedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_id":      result.Record.ID,
		"template_name":    result.Record.TemplateName,
		"template_version": result.Record.TemplateVersion,
		"draft":            result.Record.Draft,
		"variables_used":   result.Record.UsedVariables(),
	})
}

type batchRequest struct {
	Draft       bool                   `json:"draft"`
	GeneratedBy string                 `json:"generated_by"`
	Items       []services.BatchItem   `json:"items" binding:"required"`
}

// GenerateBatch fills several templates in one call. Items fail
// independently; the response reports per-item outcomes.
func (h *GenerateHandler) GenerateBatch(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items are required"})
		return
	}

	results := h.generator.GenerateBatch(c.Request.Context(), firm, req.GeneratedBy, req.Draft, req.Items)
	items := make([]gin.H, len(results))
	for i, r := range results {
		if r.Err != nil {
			items[i] = gin.H{"index": r.Index, "error": r.Err.Error()}
			continue
		}
		items[i] = gin.H{
			"index":       r.Index,
			"document_id": r.Result.Record.ID,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// Download streams a generated document back as an attachment.
func (h *GenerateHandler) Download(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	record, content, err := h.generator.Document(c.Request.Context(), firm, c.Param("documentId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.docx", record.TemplateName))
	c.Data(http.StatusOK, storage.DocxContentType, content)
}

// History pages the firm's generation records.
func (h *GenerateHandler) History(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	records, total, err := h.generator.History(c.Request.Context(), firm, c.Query("template_id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
	})
}
