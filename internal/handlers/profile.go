package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileRequest struct {
	AttorneyName string `json:"attorney_name" binding:"required"`
	BarNumber    string `json:"bar_number" binding:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Fax          string `json:"fax"`
	FirmName     string `json:"firm_name"`
	FirmAddress  string `json:"firm_address"`
	FirmCity     string `json:"firm_city"`
	FirmState    string `json:"firm_state"`
	FirmZip      string `json:"firm_zip"`
	IsPrimary    bool   `json:"is_primary"`
}

// Save upserts the firm's attorney profile used for signature blocks.
func (h *ProfileHandler) Save(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attorney_name and bar_number are required"})
		return
	}

	profile := &models.AttorneyProfile{
		FirmID:       firm,
		AttorneyName: req.AttorneyName,
		BarNumber:    req.BarNumber,
		Email:        req.Email,
		Phone:        req.Phone,
		Fax:          req.Fax,
		FirmName:     req.FirmName,
		FirmAddress:  req.FirmAddress,
		FirmCity:     req.FirmCity,
		FirmState:    req.FirmState,
		FirmZip:      req.FirmZip,
		IsPrimary:    req.IsPrimary,
	}
	if err := h.profiles.SaveProfile(c.Request.Context(), profile); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	firm, ok := firmID(c)
	if !ok {
		return
	}
	profile, err := h.profiles.FirmProfile(c.Request.Context(), firm)
	if err != nil {
		writeError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no profile configured"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
