package irrigation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/teslashibe/go-plantvision/internal/httpc"
)

// DefaultForecastURL is the Open-Meteo forecast endpoint.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// Forecast is the subset of an Open-Meteo response used for irrigation.
type Forecast struct {
	Hourly struct {
		ET0         []float64 `json:"et0_fao_evapotranspiration"`
		Temperature []float64 `json:"temperature_2m"`
		Humidity    []float64 `json:"relative_humidity_2m"`
		Time        []string  `json:"time"`
	} `json:"hourly"`
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
	} `json:"current_weather"`
}

// ForecastSource fetches a forecast for a location.
type ForecastSource interface {
	Forecast(ctx context.Context, lat, lon float64) (*Forecast, error)
}

// OpenMeteo fetches forecasts from the Open-Meteo API.
type OpenMeteo struct {
	baseURL string
	client  *http.Client
}

// NewOpenMeteo creates a forecast client. If client is nil the shared
// httpc.Client is used.
func NewOpenMeteo(baseURL string, client *http.Client) *OpenMeteo {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	if client == nil {
		client = httpc.Client
	}
	return &OpenMeteo{baseURL: baseURL, client: client}
}

// Forecast fetches hourly ET0, temperature and humidity plus current
// weather.
func (o *OpenMeteo) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	u, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("forecast url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", "et0_fao_evapotranspiration,temperature_2m,relative_humidity_2m")
	q.Set("current_weather", "true")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast API error %d: %s", resp.StatusCode, string(body))
	}

	var f Forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return &f, nil
}
