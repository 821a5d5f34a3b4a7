package ginserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	domainbooking "staybook/internal/domain/booking"
	domainmessage "staybook/internal/domain/message"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainreview "staybook/internal/domain/review"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/user"
	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	ListMine(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	FreeRanges(c *gin.Context)
}

type PropertyHTTP interface {
	Create(c *gin.Context)
	UploadPhoto(c *gin.Context)
	Delete(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	List(c *gin.Context)
}

type MessageHTTP interface {
	Send(c *gin.Context)
	Conversation(c *gin.Context)
}

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Property     PropertyHTTP
	Review       ReviewHTTP
	Message      MessageHTTP
	Auth         AuthHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, limiter *obs.RateLimiter, registry *prometheus.Registry, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if registry != nil {
		router.GET("/metrics", obs.Handler(registry))
	}

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/me/bookings", h.Booking.ListMine)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/availability", h.Availability.Check)
		api.GET("/properties/:id/free-ranges", h.Availability.FreeRanges)
	}
	if h.Property != nil {
		api.POST("/properties", h.Property.Create)
		api.POST("/properties/:id/photos", h.Property.UploadPhoto)
		api.DELETE("/properties/:id", h.Property.Delete)
	}
	if h.Review != nil {
		api.POST("/properties/:id/reviews", h.Review.Submit)
		api.GET("/properties/:id/reviews", h.Review.List)
	}
	if h.Message != nil {
		api.POST("/messages", h.Message.Send)
		api.GET("/messages/:peer", h.Message.Conversation)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

// writeError translates domain errors into HTTP statuses so a conflict,
// a missing resource and a malformed range stay distinguishable.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrRetroactiveStart),
		errors.Is(err, domainreview.ErrRatingOutOfRange),
		errors.Is(err, domainreview.ErrCommentRequired),
		errors.Is(err, domainmessage.ErrSelfMessage),
		errors.Is(err, domainmessage.ErrBodyRequired),
		errors.Is(err, domainproperty.ErrInvalidRate),
		errors.Is(err, user.ErrEmailInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainproperty.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, domainreview.ErrNotFound),
		errors.Is(err, domainpayment.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrDateConflict),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainreview.ErrDuplicate),
		errors.Is(err, domainpayment.ErrDuplicate),
		errors.Is(err, user.ErrEmailAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func requireUserID(c *gin.Context) (user.ID, bool) {
	id := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header required"})
		return "", false
	}
	return user.ID(id), true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}
