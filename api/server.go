// Package api exposes the HTTP surface over the forecast service.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"trailweather.app/config"
	apperrors "trailweather.app/errors"
	"trailweather.app/metrics"
	"trailweather.app/models"
	"trailweather.app/service"
)

const defaultDays = 3

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
			switch models.Resolution(fl.Field().String()) {
			case models.ResolutionHourly, models.ResolutionSixHourly, models.ResolutionDaily:
				return true
			}
			return false
		})
	}
}

// Server represents the HTTP server and API handler
type Server struct {
	router          *gin.Engine
	config          *config.Config
	weatherService  service.WeatherServiceInterface
	providerMetrics *metrics.ProviderMetrics
}

// NewServer creates and configures a new HTTP server
func NewServer(cfg *config.Config, weatherService service.WeatherServiceInterface, providerMetrics *metrics.ProviderMetrics) *Server {
	router := gin.Default()
	router.Use(requestID())

	server := &Server{
		router:          router,
		config:          cfg,
		weatherService:  weatherService,
		providerMetrics: providerMetrics,
	}

	server.setupRoutes()
	return server
}

// requestID tags every request with an identifier for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/forecast", s.getForecast)
		api.GET("/forecast/domestic", s.getDomesticForecast)
		api.GET("/alerts", s.getAlerts)
		api.GET("/stats", s.getStats)
	}

	s.router.GET("/healthz", s.healthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start begins the HTTP server
func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%d", s.config.Server.Port))
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

type forecastRequest struct {
	Lat     *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lon     *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Country string   `form:"country" binding:"omitempty,iso3166_1_alpha2"`
	Days    int      `form:"days" binding:"omitempty,min=1,max=7"`
}

type domesticForecastRequest struct {
	Lat        *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lon        *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Days       int      `form:"days" binding:"omitempty,min=1,max=7"`
	Resolution string   `form:"resolution" binding:"omitempty,resolution"`
}

func (s *Server) getForecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		slog.Debug("Request binding error", "error", err, "request_id", c.GetString("request_id"))
		s.handleError(c, apperrors.NewValidationError("lat and lon are required; country must be a two-letter code; days must be 1-7"))
		return
	}
	if req.Days == 0 {
		req.Days = defaultDays
	}

	forecast, err := s.weatherService.GetForecast(c.Request.Context(), *req.Lat, *req.Lon, req.Country, req.Days)
	if err != nil {
		slog.Error("Forecast request failed", "error", err,
			"lat", *req.Lat, "lon", *req.Lon, "country", req.Country,
			"request_id", c.GetString("request_id"))
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, forecast)
}

func (s *Server) getDomesticForecast(c *gin.Context) {
	var req domesticForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		slog.Debug("Request binding error", "error", err, "request_id", c.GetString("request_id"))
		s.handleError(c, apperrors.NewValidationError("lat and lon are required; resolution must be hourly, sixhourly, or daily; days must be 1-7"))
		return
	}
	if req.Days == 0 {
		req.Days = defaultDays
	}
	resolution := models.Resolution(req.Resolution)
	if resolution == "" {
		resolution = models.ResolutionDaily
	}

	forecast, err := s.weatherService.GetDomesticForecast(c.Request.Context(), *req.Lat, *req.Lon, req.Days, resolution)
	if err != nil {
		slog.Error("Domestic forecast request failed", "error", err,
			"lat", *req.Lat, "lon", *req.Lon, "resolution", resolution,
			"request_id", c.GetString("request_id"))
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, forecast)
}

func (s *Server) getAlerts(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.handleError(c, apperrors.NewValidationError("lat and lon are required; country must be a two-letter code"))
		return
	}

	alerts := s.weatherService.GetAlerts(c.Request.Context(), *req.Lat, *req.Lon, req.Country)
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cache": s.providerMetrics.GetStats()})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleError maps application error types to HTTP status codes.
func (s *Server) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	var statusCode int
	var message string

	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ValidationError:
			statusCode = http.StatusBadRequest
			message = appErr.Message
		case apperrors.ProviderUnsupportedLocation:
			statusCode = http.StatusNotFound
			message = appErr.Message
		case apperrors.ProviderUnavailable, apperrors.AllProvidersExhausted:
			statusCode = http.StatusServiceUnavailable
			message = "Forecast providers unavailable"
		case apperrors.ProviderMisconfigured, apperrors.ConfigurationError:
			statusCode = http.StatusInternalServerError
			message = "Service misconfigured"
		default:
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	} else {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, models.ErrorResponse{Error: message})
}
