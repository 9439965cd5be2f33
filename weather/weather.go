// Package weather fetches the current conditions used for menu scoring.
package weather

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Coarse condition labels. The scoring engine matches on these, so they
// are part of the recommendation contract.
const (
	ConditionClear        = "clear"
	ConditionPartlyCloudy = "partly-cloudy"
	ConditionRain         = "rain"
	ConditionOvercast     = "overcast"
	ConditionUnknown      = "unknown"
)

const (
	defaultBaseURL = "https://api.open-meteo.com"

	// Sentinel temperature reported when the fetch fails.
	fallbackTemperature = 20.0
)

// Observation is the current weather as seen by the recommender.
// Degraded is set when the fetch failed and the sentinel was substituted.
type Observation struct {
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Degraded    bool    `json:"degraded,omitempty"`
}

// Client fetches current conditions for a fixed geographic point.
type Client struct {
	client    *resty.Client
	latitude  float64
	longitude float64
}

// NewClient creates a weather client for the given coordinates. The
// timeout bounds the whole fetch; there are no retries.
func NewClient(latitude, longitude float64, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(timeout)

	return &Client{client: c, latitude: latitude, longitude: longitude}
}

// SetBaseURL overrides the API endpoint. Tests point this at a local server.
func (c *Client) SetBaseURL(url string) {
	c.client.SetBaseURL(url)
}

type currentWeather struct {
	Temperature float64 `json:"temperature"`
	WeatherCode int     `json:"weathercode"`
}

type forecastResponse struct {
	CurrentWeather *currentWeather `json:"current_weather"`
}

// Current returns the present observation. It never fails: any network,
// status or parse problem yields the degraded sentinel so downstream
// scoring always has a well-formed condition label.
func (c *Client) Current(ctx context.Context) Observation {
	var out forecastResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":        strconv.FormatFloat(c.latitude, 'f', 4, 64),
			"longitude":       strconv.FormatFloat(c.longitude, 'f', 4, 64),
			"current_weather": "true",
		}).
		SetResult(&out).
		Get("/v1/forecast")

	if err != nil || resp.StatusCode() != http.StatusOK || out.CurrentWeather == nil {
		return Observation{
			Temperature: fallbackTemperature,
			Condition:   ConditionUnknown,
			Degraded:    true,
		}
	}

	return Observation{
		Temperature: out.CurrentWeather.Temperature,
		Condition:   conditionForCode(out.CurrentWeather.WeatherCode),
	}
}

// conditionForCode maps WMO weather codes to the coarse labels.
func conditionForCode(code int) string {
	switch code {
	case 0:
		return ConditionClear
	case 1, 2, 3:
		return ConditionPartlyCloudy
	case 51, 53, 55, 61, 63, 65:
		return ConditionRain
	default:
		return ConditionOvercast
	}
}
