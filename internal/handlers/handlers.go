package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LF-DOCGEN/internal/resolver"
	"LF-DOCGEN/internal/services"
)

// firmID extracts the tenant from the X-Firm-ID header. Every data route
// requires it; there is no cross-firm access path.
func firmID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-Firm-ID")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Firm-ID header is required"})
		return "", false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var missing *services.MissingRequiredVariableError
	var ambiguous *resolver.AmbiguousMatchError

	switch {
	case errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, resolver.ErrNoMatch):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTemplatePackage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    err.Error(),
			"variable": missing.Name,
		})
	case errors.As(err, &ambiguous):
		candidates := make([]gin.H, len(ambiguous.Candidates))
		for i, m := range ambiguous.Candidates {
			candidates[i] = gin.H{
				"id":    m.Template.ID,
				"name":  m.Template.Name,
				"score": m.Score,
			}
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"candidates": candidates,
		})
	case errors.Is(err, services.ErrSubstitutionIntegrity):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
