package routes

import (
	"net/http"

	"github.com/OKpoorav/DietKaro-sub002/controllers"
	"github.com/OKpoorav/DietKaro-sub002/middlewares"
	"github.com/OKpoorav/DietKaro-sub002/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Controllers struct {
	Validation *controllers.ValidationController
	Adherence  *controllers.AdherenceController
	MealLogs   *controllers.MealLogController
	Profiles   *controllers.ProfileController
	Devices    *controllers.DeviceController
	Realtime   *controllers.RealtimeController
}

func SetupRouter(ctl Controllers, jwtSecret []byte, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	auth := middlewares.AuthMiddleware(jwtSecret)
	staff := middlewares.RequireRole(models.RoleOwner, models.RoleAdmin, models.RoleDietitian)

	r.GET("/ws/dashboard", auth, staff, ctl.Realtime.DashboardWS)

	api := r.Group("/api")
	api.Use(auth)
	{
		api.POST("/devices", ctl.Devices.Register)
		api.PUT("/devices/notifications", ctl.Devices.ToggleNotifications)

		api.PATCH("/meal-logs/:id/status", ctl.MealLogs.UpdateStatus)
		api.POST("/meal-logs/:id/photo", ctl.MealLogs.AttachPhoto)
		api.POST("/meal-logs/:id/review", staff, ctl.MealLogs.Review)

		api.DELETE("/validation-cache", middlewares.RequireRole(models.RoleOwner, models.RoleAdmin), ctl.Validation.ClearAll)
	}

	clients := api.Group("/clients/:clientId")
	clients.Use(staff)
	{
		clients.POST("/validate", ctl.Validation.Validate)
		clients.POST("/validate/batch", ctl.Validation.ValidateBatch)
		clients.DELETE("/validation-cache", ctl.Validation.InvalidateClient)
		clients.PUT("/dietary-profile", ctl.Profiles.UpdateDietaryProfile)

		clients.GET("/adherence/daily", ctl.Adherence.Daily)
		clients.GET("/adherence/weekly", ctl.Adherence.Weekly)
		clients.GET("/adherence/history", ctl.Adherence.History)
	}

	return r
}
