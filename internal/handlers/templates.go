package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"LF-DOCGEN/internal/resolver"
	"LF-DOCGEN/internal/services"
	"LF-DOCGEN/internal/store"
)

type TemplatesHandler struct {
	templates *services.TemplateService
	resolver  *resolver.Resolver
}

func NewTemplatesHandler(templates *services.TemplateService, res *resolver.Resolver) *TemplatesHandler {
	return &TemplatesHandler{templates: templates, resolver: res}
}

// Import accepts a multipart .docx upload plus optional metadata fields.
func (h *TemplatesHandler) Import(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("template")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".docx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .docx files are supported"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	result, err := h.templates.ImportTemplate(c.Request.Context(), services.ImportRequest{
		FirmID:          firm,
		Filename:        header.Filename,
		Content:         content,
		DocumentTypeKey: c.PostForm("document_type"),
		Category:        c.PostForm("category"),
		Jurisdiction:    c.PostForm("jurisdiction"),
		CaseTypes:       splitList(c.PostForm("case_types")),
		Tags:            splitList(c.PostForm("tags")),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"template_id": result.Template.ID,
		"name":        result.Template.Name,
		"version":     result.Template.Version,
		"created":     result.Created,
		"updated":     result.Updated,
		"variables":   result.Template.VariableList(),
	})
}

func (h *TemplatesHandler) List(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}

	activeOnly := c.DefaultQuery("active", "true") != "false"
	templates, err := h.templates.ListTemplates(c.Request.Context(), firm, store.TemplateFilters{
		Category:     c.Query("category"),
		Jurisdiction: c.Query("jurisdiction"),
		CaseType:     c.Query("case_type"),
	}, activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, len(templates))
	for i, t := range templates {
		items[i] = gin.H{
			"id":            t.ID,
			"name":          t.Name,
			"document_type": t.DocumentTypeKey,
			"category":      t.Category,
			"jurisdiction":  t.Jurisdiction,
			"case_types":    t.CaseTypeList(),
			"tags":          t.TagList(),
			"variables":     t.VariableList(),
			"is_active":     t.IsActive,
			"version":       t.Version,
			"usage_count":   t.UsageCount,
			"updated_at":    t.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"templates": items, "total": len(items)})
}

func (h *TemplatesHandler) Get(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	tmpl, err := h.templates.GetTemplate(c.Request.Context(), firm, c.Param("templateId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

type deactivateRequest struct {
	NamePattern string `json:"name_pattern" binding:"required"`
}

// Deactivate retires matching templates from resolution. Zero matches is a
// success with count 0.
func (h *TemplatesHandler) Deactivate(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	var req deactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name_pattern is required"})
		return
	}
	count, err := h.templates.Deactivate(c.Request.Context(), firm, req.NamePattern)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": count})
}

type resolveRequest struct {
	Query        string `json:"query" binding:"required"`
	Category     string `json:"category"`
	Jurisdiction string `json:"jurisdiction"`
	CaseType     string `json:"case_type"`
	Limit        int    `json:"limit"`
}

// Resolve ranks templates against a free-text request.
func (h *TemplatesHandler) Resolve(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	matches, err := h.resolver.Resolve(c.Request.Context(), resolver.Request{
		FirmID: firm,
		Query:  req.Query,
		Filters: store.TemplateFilters{
			Category:     req.Category,
			Jurisdiction: req.Jurisdiction,
			CaseType:     req.CaseType,
		},
		Limit: req.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, len(matches))
	for i, m := range matches {
		items[i] = gin.H{
			"id":            m.Template.ID,
			"name":          m.Template.Name,
			"document_type": m.Template.DocumentTypeKey,
			"score":         m.Score,
			"fallback":      m.Fallback,
			"variables":     m.Template.VariableList(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"matches": items})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
