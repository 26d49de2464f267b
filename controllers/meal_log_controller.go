package controllers

import (
	"net/http"

	"github.com/OKpoorav/DietKaro-sub002/services"

	"github.com/gin-gonic/gin"
)

type MealLogController struct {
	Svc *services.MealLogService
}

func NewMealLogController(svc *services.MealLogService) *MealLogController {
	return &MealLogController{Svc: svc}
}

type photoRequest struct {
	Image string `json:"image" binding:"required"` // data:image/...;base64,...
}

// PATCH /api/meal-logs/:id/status
func (h *MealLogController) UpdateStatus(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Svc.UpdateStatus(c.Request.Context(), orgID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/meal-logs/:id/photo
func (h *MealLogController) AttachPhoto(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Svc.AttachPhoto(c.Request.Context(), orgID, id, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/meal-logs/:id/review
func (h *MealLogController) Review(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Svc.Review(c.Request.Context(), orgID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
