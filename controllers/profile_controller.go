package controllers

import (
	"net/http"

	"github.com/OKpoorav/DietKaro-sub002/services"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	Svc *services.ProfileService
}

func NewProfileController(svc *services.ProfileService) *ProfileController {
	return &ProfileController{Svc: svc}
}

// PUT /api/clients/:clientId/dietary-profile
func (h *ProfileController) UpdateDietaryProfile(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	var in services.DietaryProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.Svc.UpdateDietaryProfile(c.Request.Context(), orgID, clientID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
