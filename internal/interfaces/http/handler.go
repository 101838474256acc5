package httpinterface

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/internal/core/application"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

type handler struct {
	federation *application.Federation
	pubsub     ports.PubSub
}

func (h *handler) registerRoutes(router *gin.Engine) {
	api := router.Group("/v1")
	{
		api.GET("/book", h.getBook)
		api.GET("/exchange", h.getExchange)
		api.GET("/limits", h.getLimits)
		api.GET("/bond", h.getBond)
		api.GET("/coordinators", h.listCoordinators)
		api.GET("/coordinators/:alias", h.getCoordinator)
		api.GET("/coordinators/:alias/limits", h.getCoordinatorLimits)
		api.POST("/coordinators/:alias/enable", h.enableCoordinator)
		api.POST("/coordinators/:alias/disable", h.disableCoordinator)
		api.GET("/connection", h.getConnection)
		api.POST("/connection", h.setConnection)
	}

	if h.pubsub != nil {
		api.GET("/webhooks", h.listWebhooks)
		api.POST("/webhooks", h.addWebhook)
		api.DELETE("/webhooks/:id", h.removeWebhook)
	}
}

func (h *handler) getBook(c *gin.Context) {
	var query bookQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := query.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot := h.federation.Snapshot()
	orders := h.federation.Filter(
		filter.base, filter.premiumFloor, filter.paymentMethods, filter.amount,
	)
	c.JSON(http.StatusOK, gin.H{
		"version":  snapshot.Version,
		"loading":  snapshot.Loading,
		"restored": snapshot.Restored,
		"orders":   orders,
	})
}

func (h *handler) getExchange(c *gin.Context) {
	snapshot := h.federation.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"version":  snapshot.Version,
		"loading":  snapshot.Loading,
		"exchange": snapshot.Exchange,
	})
}

func (h *handler) getLimits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"limits": h.federation.Limits()})
}

func (h *handler) getBond(c *gin.Context) {
	var query bondQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params, err := query.parse(h.federation.Limits())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bond, ok := domain.CalculateBondAmount(*params)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ErrMissingPrice.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bond": int64(bond)})
}

func (h *handler) listCoordinators(c *gin.Context) {
	now := time.Now()
	coordinators := h.federation.Coordinators()
	views := make([]coordinatorView, 0, len(coordinators))
	for _, coordinator := range coordinators {
		views = append(views, newCoordinatorView(coordinator, now))
	}
	c.JSON(http.StatusOK, gin.H{
		"coordinators":  views,
		"third_parties": h.federation.ThirdParties(),
	})
}

func (h *handler) getCoordinator(c *gin.Context) {
	coordinator, err := h.federation.GetCoordinator(c.Param("alias"))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newCoordinatorView(coordinator, time.Now()))
}

func (h *handler) getCoordinatorLimits(c *gin.Context) {
	limits, err := h.federation.CoordinatorLimits(c.Param("alias"))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"limits": limits})
}

func (h *handler) enableCoordinator(c *gin.Context) {
	alias := c.Param("alias")
	if err := h.federation.EnableCoordinator(c.Request.Context(), alias); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	log.WithField("coordinator", alias).Info("coordinator enabled")
	c.JSON(http.StatusOK, gin.H{})
}

func (h *handler) disableCoordinator(c *gin.Context) {
	alias := c.Param("alias")
	if err := h.federation.DisableCoordinator(alias); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	log.WithField("coordinator", alias).Info("coordinator disabled")
	c.JSON(http.StatusOK, gin.H{})
}

func (h *handler) getConnection(c *gin.Context) {
	c.JSON(http.StatusOK, newSettingsView(h.federation.Settings()))
}

func (h *handler) setConnection(c *gin.Context) {
	var req settingsView
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := req.apply(h.federation.Settings())
	if err := h.federation.SetConnection(c.Request.Context(), settings); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	log.WithField("connection", settings.Connection).Info("connection updated")
	c.JSON(http.StatusOK, newSettingsView(h.federation.Settings()))
}

func (h *handler) listWebhooks(c *gin.Context) {
	subs := h.pubsub.ListSubscriptionsForTopic(c.Query("topic"))
	webhooks := make([]webhookView, 0, len(subs))
	for _, s := range subs {
		webhooks = append(webhooks, webhookView{
			ID:        s.Id(),
			Topic:     s.Topic(),
			Endpoint:  s.NotifyAt(),
			IsSecured: s.IsSecured(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": webhooks})
}

func (h *handler) addWebhook(c *gin.Context) {
	var req struct {
		Topic    string `json:"topic" binding:"required"`
		Endpoint string `json:"endpoint" binding:"required"`
		Secret   string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.pubsub.Subscribe(req.Topic, req.Endpoint, req.Secret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *handler) removeWebhook(c *gin.Context) {
	if err := h.pubsub.Unsubscribe("", c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, application.ErrCoordinatorNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownConnection),
		errors.Is(err, domain.ErrUnknownNetwork),
		errors.Is(err, domain.ErrUnknownOrigin):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
