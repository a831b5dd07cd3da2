package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitbook/splitbook/internal/config"
	"github.com/splitbook/splitbook/internal/metrics"
	"github.com/splitbook/splitbook/internal/middleware"
)

// NewRouter builds the gin engine with all API routes registered.
func NewRouter(cfg *config.Config, th *TemplateHandler, ih *InstanceHandler, ah *AllocationHandler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if cfg.Metrics.Enabled {
		r.Use(requestDuration())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	templates := api.Group("/templates")
	{
		templates.POST("", th.CreateTemplate)
		templates.GET("", th.ListTemplates)
		templates.GET("/:id", th.GetTemplate)
		templates.PUT("/:id", th.UpdateTemplate)
		templates.DELETE("/:id", th.DeleteTemplate)
		templates.POST("/:id/participants", th.AddParticipant)
		templates.GET("/:id/participants", th.ListParticipants)
		templates.POST("/:id/fields", th.AddField)
		templates.GET("/:id/fields", th.ListFields)
		templates.POST("/:id/split-rules", th.CreateSplitRule)
		templates.GET("/:id/split-rules", th.ListSplitRules)
	}

	api.GET("/participants/:id", th.GetParticipant)
	api.DELETE("/participants/:id", th.DeleteParticipant)

	api.GET("/fields/:id", th.GetField)
	api.DELETE("/fields/:id", th.DeleteField)

	rules := api.Group("/split-rules")
	{
		rules.GET("/:id", th.GetSplitRule)
		rules.DELETE("/:id", th.DeleteSplitRule)
		rules.POST("/:id/allocations", th.AddRuleAllocation)
		rules.GET("/:id/allocations", th.ListRuleAllocations)
		rules.GET("/:id/validate", th.ValidateSplitRule)
	}

	api.GET("/rule-allocations/:id", th.GetRuleAllocation)
	api.DELETE("/rule-allocations/:id", th.DeleteRuleAllocation)

	instances := api.Group("/instances")
	{
		instances.POST("", ih.CreateInstance)
		instances.GET("", ih.ListInstances)
		instances.GET("/:id", ih.GetInstance)
		instances.PUT("/:id", ih.RenameInstance)
		instances.DELETE("/:id", ih.DeleteInstance)
		instances.POST("/:id/settle", ih.MarkSettled)
		instances.POST("/:id/reopen", ih.Reopen)
		instances.POST("/:id/field-values", ih.AddFieldValue)
		instances.GET("/:id/field-values", ih.ListFieldValues)
		instances.GET("/:id/participants/:participantId/total", ah.ParticipantTotal)
	}

	api.GET("/field-values/:id", ih.GetFieldValue)
	api.PUT("/field-values/:id", ih.UpdateFieldValue)
	api.DELETE("/field-values/:id", ih.DeleteFieldValue)

	calculations := api.Group("/calculations")
	{
		calculations.POST("", ah.CreateEntryAmount)
		calculations.GET("", ah.ListEntryAmounts)
		calculations.GET("/:id", ah.GetEntryAmount)
		calculations.PUT("/:id", ah.UpdateEntryAmount)
		calculations.DELETE("/:id", ah.DeleteEntryAmount)
		calculations.DELETE("/by-field-value/:id", ah.DeleteEntryAmountsByFieldValue)
		calculations.DELETE("/by-participant/:id", ah.DeleteEntryAmountsByParticipant)
	}

	return r
}

func requestDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
