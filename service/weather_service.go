// Package service exposes the application-facing forecast operations,
// routing home-country requests through the domestic pipeline and all
// other requests through the provider router.
package service

import (
	"context"
	"fmt"
	"strings"

	"trailweather.app/errors"
	"trailweather.app/models"
)

// DomesticPipeline is the slice of the domestic package the service needs.
type DomesticPipeline interface {
	GetForecast(ctx context.Context, lat, lon float64, days int, resolution models.Resolution) (*models.DomesticForecast, error)
}

// ForecastRouter is the slice of the provider router the service needs.
type ForecastRouter interface {
	GetForecast(ctx context.Context, lat, lon float64, country string, days int) (*models.InternationalForecast, error)
	GetAlerts(ctx context.Context, lat, lon float64, country string) []models.WeatherAlert
}

// WeatherServiceInterface is the operation surface the API layer depends on.
type WeatherServiceInterface interface {
	GetForecast(ctx context.Context, lat, lon float64, country string, days int) (models.ForecastResult, error)
	GetDomesticForecast(ctx context.Context, lat, lon float64, days int, resolution models.Resolution) (*models.DomesticForecast, error)
	GetAlerts(ctx context.Context, lat, lon float64, country string) []models.WeatherAlert
}

// WeatherService validates requests and dispatches them to the right
// acquisition path.
type WeatherService struct {
	homeCountry string
	pipeline    DomesticPipeline
	router      ForecastRouter
}

func NewWeatherService(homeCountry string, pipeline DomesticPipeline, router ForecastRouter) *WeatherService {
	return &WeatherService{
		homeCountry: strings.ToUpper(strings.TrimSpace(homeCountry)),
		pipeline:    pipeline,
		router:      router,
	}
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return errors.NewValidationError(fmt.Sprintf("latitude %.4f out of range [-90, 90]", lat))
	}
	if lon < -180 || lon > 180 {
		return errors.NewValidationError(fmt.Sprintf("longitude %.4f out of range [-180, 180]", lon))
	}
	return nil
}

// IsHome reports whether the country code is served by the domestic
// pipeline.
func (s *WeatherService) IsHome(country string) bool {
	return strings.ToUpper(strings.TrimSpace(country)) == s.homeCountry
}

// GetForecast returns the best available forecast for the coordinate.
// Home-country requests go through the domestic pipeline at daily
// resolution; everything else goes through the router.
func (s *WeatherService) GetForecast(ctx context.Context, lat, lon float64, country string, days int) (models.ForecastResult, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if s.IsHome(country) {
		return s.pipeline.GetForecast(ctx, lat, lon, days, models.ResolutionDaily)
	}
	return s.router.GetForecast(ctx, lat, lon, country, days)
}

// GetDomesticForecast serves a home-country forecast at an explicit
// resolution.
func (s *WeatherService) GetDomesticForecast(ctx context.Context, lat, lon float64, days int, resolution models.Resolution) (*models.DomesticForecast, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	return s.pipeline.GetForecast(ctx, lat, lon, days, resolution)
}

// GetAlerts returns best-effort alerts for the coordinate. The home
// country resolves to the router's default provider, which carries no
// alert feed, so home requests come back empty without a network call.
func (s *WeatherService) GetAlerts(ctx context.Context, lat, lon float64, country string) []models.WeatherAlert {
	if err := validateCoordinates(lat, lon); err != nil {
		return []models.WeatherAlert{}
	}
	return s.router.GetAlerts(ctx, lat, lon, country)
}
