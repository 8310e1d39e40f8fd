package irrigation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults match the demo installation.
const (
	DefaultLatitude    = 41.6836
	DefaultLongitude   = -0.8881
	DefaultPotDiameter = 10.0 // cm
	DefaultCacheTTL    = 10 * time.Minute
	DefaultCacheSize   = 64

	forecastHours = 24
)

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HourlyForecast is the next 24 hours of weather.
type HourlyForecast struct {
	Temperatures []float64 `json:"temperatures"`
	Humidity     []float64 `json:"humidity"`
	Times        []string  `json:"times"`
}

// Breakdown shows how the estimate was computed.
type Breakdown struct {
	TotalET0         float64 `json:"totalET0"` // mm, reference
	ETcPlant         float64 `json:"etcPlant"` // mm, plant specific
	SurfaceM2        float64 `json:"surfaceM2"`
	RequiredLitres   float64 `json:"requiredLitres"`
	PlantCoefficient float64 `json:"plantCoefficient"`
}

// Estimate is a watering recommendation for the next 24 hours.
type Estimate struct {
	RequiredMl      int            `json:"requiredMl"`
	CurrentTemp     float64        `json:"currentTemp"`
	CurrentHumidity float64        `json:"currentHumidity"`
	HourlyForecast  HourlyForecast `json:"hourlyForecast"`
	Location        Location       `json:"location"`
	PotSize         float64        `json:"potSize"` // cm
	Plant           Plant          `json:"plant"`
	Calculation     Breakdown      `json:"calculation"`
}

// Calculator turns forecasts into watering estimates and caches them.
type Calculator struct {
	source      ForecastSource
	potDiameter float64
	cache       *expirable.LRU[string, *Estimate]
	logger      *slog.Logger
}

// NewCalculator creates a calculator for a pot of the given diameter in cm.
func NewCalculator(source ForecastSource, potDiameterCm float64, ttl time.Duration) *Calculator {
	if potDiameterCm <= 0 {
		potDiameterCm = DefaultPotDiameter
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Calculator{
		source:      source,
		potDiameter: potDiameterCm,
		cache:       expirable.NewLRU[string, *Estimate](DefaultCacheSize, nil, ttl),
		logger:      slog.Default().With("component", "irrigation"),
	}
}

// Plants returns the plant catalog.
func (c *Calculator) Plants() []Plant {
	return Plants()
}

// Calculate estimates the water plantID needs at the location. Unknown
// plant IDs use the menta coefficients.
func (c *Calculator) Calculate(ctx context.Context, lat, lon float64, plantID string) (*Estimate, error) {
	plant, ok := Lookup(plantID)
	if !ok {
		plant = catalog[Menta]
	}

	key := fmt.Sprintf("watering-%g-%g-%s", lat, lon, plant.ID)
	if est, ok := c.cache.Get(key); ok {
		return est, nil
	}

	c.logger.Info("fetching forecast", "lat", lat, "lon", lon)
	f, err := c.source.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	est := Compute(f, plant, c.potDiameter)
	est.Location = Location{Lat: lat, Lon: lon}
	c.cache.Add(key, est)
	return est, nil
}

// CacheSize returns the number of cached estimates.
func (c *Calculator) CacheSize() int {
	return c.cache.Len()
}

// Compute applies the crop coefficient method to a forecast.
func Compute(f *Forecast, plant Plant, potDiameterCm float64) *Estimate {
	totalET := 0.0
	for _, v := range firstN(f.Hourly.ET0, forecastHours) {
		totalET += v
	}

	radiusM := potDiameterCm / 2 / 100
	surface := math.Pi * radiusM * radiusM
	etc := totalET * plant.Coefficient
	litres := etc * surface

	est := &Estimate{
		RequiredMl:  int(math.Round(litres * 1000)),
		CurrentTemp: f.CurrentWeather.Temperature,
		HourlyForecast: HourlyForecast{
			Temperatures: firstN(f.Hourly.Temperature, forecastHours),
			Humidity:     firstN(f.Hourly.Humidity, forecastHours),
			Times:        firstN(f.Hourly.Time, forecastHours),
		},
		PotSize: potDiameterCm,
		Plant:   plant,
		Calculation: Breakdown{
			TotalET0:         totalET,
			ETcPlant:         etc,
			SurfaceM2:        surface,
			RequiredLitres:   litres,
			PlantCoefficient: plant.Coefficient,
		},
	}
	if len(f.Hourly.Humidity) > 0 {
		est.CurrentHumidity = f.Hourly.Humidity[0]
	}
	return est
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
