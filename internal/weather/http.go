package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/kalambet/lookbook/internal/metrics"
)

// DefaultBaseURL is the Open-Meteo forecast API.
const DefaultBaseURL = "https://api.open-meteo.com"

// HTTPProvider reads current temperature from an Open-Meteo compatible
// endpoint. Calls go through a circuit breaker so a dead upstream is not
// hammered on every wizard open.
type HTTPProvider struct {
	baseURL    string
	latitude   float64
	longitude  float64
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[Reading]
}

// NewHTTPProvider creates a provider for the given coordinates.
func NewHTTPProvider(baseURL string, latitude, longitude float64) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		latitude:   latitude,
		longitude:  longitude,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cb: gobreaker.NewCircuitBreaker[Reading](gobreaker.Settings{
			Name:        "weather",
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("weather breaker state change", "from", from.String(), "to", to.String())
				metrics.WeatherBreakerState.Set(float64(to))
			},
		}),
	}
}

// forecastResponse mirrors the subset of GET /v1/forecast we read.
type forecastResponse struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
	} `json:"current"`
}

// Current fetches the current temperature in °F.
func (p *HTTPProvider) Current(ctx context.Context) (Reading, error) {
	r, err := p.cb.Execute(func() (Reading, error) {
		return p.fetch(ctx)
	})
	switch {
	case err == nil:
		metrics.WeatherRequests.WithLabelValues("ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.WeatherRequests.WithLabelValues("rejected").Inc()
	default:
		metrics.WeatherRequests.WithLabelValues("failure").Inc()
	}
	return r, err
}

func (p *HTTPProvider) fetch(ctx context.Context) (Reading, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(p.longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m")
	q.Set("temperature_unit", "fahrenheit")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return Reading{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("requesting forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return Reading{}, fmt.Errorf("decoding response: %w", err)
	}
	if fr.Current.Temperature == nil {
		return Reading{}, errors.New("response has no current temperature")
	}
	return Describe(*fr.Current.Temperature), nil
}

// CurrentOrFallback asks p for a reading and degrades to Fallback on error.
func CurrentOrFallback(ctx context.Context, p Provider) Reading {
	r, err := p.Current(ctx)
	if err != nil {
		slog.Warn("weather unavailable, using fallback", "error", err)
		return Fallback()
	}
	return r
}
