package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/services"

	"github.com/gin-gonic/gin"
)

type AdherenceController struct {
	Svc *services.AdherenceService
	Loc *time.Location
}

func NewAdherenceController(svc *services.AdherenceService, loc *time.Location) *AdherenceController {
	if loc == nil {
		loc = time.UTC
	}
	return &AdherenceController{Svc: svc, Loc: loc}
}

// GET /api/clients/:clientId/adherence/daily?date=YYYY-MM-DD
func (h *AdherenceController) Daily(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	date, ok := parseDate(c, "date", h.Loc)
	if !ok {
		return
	}
	day := time.Now().In(h.Loc)
	if date != nil {
		day = *date
	}

	out, err := h.Svc.Daily(c.Request.Context(), orgID, clientID, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/clients/:clientId/adherence/weekly?weekStart=YYYY-MM-DD
func (h *AdherenceController) Weekly(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	weekStart, ok := parseDate(c, "weekStart", h.Loc)
	if !ok {
		return
	}

	out, err := h.Svc.Weekly(c.Request.Context(), orgID, clientID, weekStart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/clients/:clientId/adherence/history?days=N
func (h *AdherenceController) History(c *gin.Context) {
	orgID, ok := scope(c)
	if !ok {
		return
	}
	clientID, ok := uintParam(c, "clientId")
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days", "field": "days"})
		return
	}

	out, err := h.Svc.History(c.Request.Context(), orgID, clientID, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
