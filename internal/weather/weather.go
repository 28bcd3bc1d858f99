// Package weather is a small OpenWeatherMap client for current conditions.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/config"
)

// ErrNoAPIKey is returned when no usable API key is configured.
var ErrNoAPIKey = errors.New("weather api key not configured")

// placeholderKey is what deployments set when they have no real key.
const placeholderKey = "INVALID_KEY_FALLBACK"

// APIError is a non-200 reply from the weather service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// Report is the current weather for a city.
type Report struct {
	City        string
	Description string
	TempC       float64
}

type currentResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Client fetches current weather from OpenWeatherMap.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewClient builds a client against cfg.BaseURL.
func NewClient(cfg config.WeatherConfig, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, apiKey: cfg.APIKey, logger: logger}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != placeholderKey
}

// Current returns the current conditions in city, in metric units.
func (c *Client) Current(ctx context.Context, city string) (*Report, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	var (
		result  currentResponse
		failure errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": c.apiKey,
			"units": "metric",
		}).
		SetResult(&result).
		SetError(&failure).
		Get("/weather")
	if err != nil {
		c.logger.Warn("weather request failed", zap.String("city", city), zap.Error(err))
		return nil, fmt.Errorf("weather request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := failure.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP Status %d", resp.StatusCode())
		}
		c.logger.Warn("weather service returned error",
			zap.String("city", city),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", msg),
		)
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if len(result.Weather) == 0 {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: "response carried no weather conditions"}
	}

	return &Report{
		City:        city,
		Description: result.Weather[0].Description,
		TempC:       result.Main.Temp,
	}, nil
}
