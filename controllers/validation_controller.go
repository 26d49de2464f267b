package controllers

import (
	"net/http"

	"github.com/OKpoorav/DietKaro-sub002/models"
	"github.com/OKpoorav/DietKaro-sub002/services"

	"github.com/gin-gonic/gin"
)

type ValidationController struct {
	Svc *services.ValidationService
}

func NewValidationController(svc *services.ValidationService) *ValidationController {
	return &ValidationController{Svc: svc}
}

type validateRequest struct {
	FoodID     uint            `json:"foodId"`
	CurrentDay models.Weekday  `json:"currentDay"`
	MealType   models.MealType `json:"mealType"`
}

type validateBatchRequest struct {
	FoodIDs    []uint          `json:"foodIds"`
	CurrentDay models.Weekday  `json:"currentDay"`
	MealType   models.MealType `json:"mealType"`
}

// POST /api/clients/:clientId/validate
func (h *ValidationController) Validate(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Svc.Validate(c.Request.Context(), orgID, clientID, req.FoodID, normalize(req.CurrentDay, req.MealType))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/clients/:clientId/validate/batch
func (h *ValidationController) ValidateBatch(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	var req validateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Svc.ValidateBatch(c.Request.Context(), orgID, clientID, req.FoodIDs, normalize(req.CurrentDay, req.MealType))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /api/clients/:clientId/validation-cache
func (h *ValidationController) InvalidateClient(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	h.Svc.InvalidateClientCache(orgID, clientID)
	c.Status(http.StatusNoContent)
}

// DELETE /api/validation-cache, owners and admins only
func (h *ValidationController) ClearAll(c *gin.Context) {
	h.Svc.ClearCache()
	c.Status(http.StatusNoContent)
}

// normalize accepts "Tuesday" as well as "tuesday".
func normalize(day models.Weekday, meal models.MealType) models.ValidationContext {
	vctx := models.ValidationContext{CurrentDay: day, MealType: meal}
	if d, ok := models.ParseWeekday(string(day)); ok {
		vctx.CurrentDay = d
	}
	if m, ok := models.ParseMealType(string(meal)); ok {
		vctx.MealType = m
	}
	return vctx
}
