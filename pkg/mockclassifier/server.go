// Package mockclassifier serves a stand-in for the plant classification
// service. Responses follow the Roboflow shape the real service returns.
package mockclassifier

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"

	"github.com/teslashibe/go-plantvision/pkg/actuator"
	"github.com/teslashibe/go-plantvision/pkg/classify"
)

// ServiceName is reported by GET /health.
const ServiceName = "Plant Vision Mock"

// Default image size reported when the upload cannot be decoded.
const (
	defaultWidth  = 640
	defaultHeight = 480
)

// Plants are the canned predictions, keyed by label.
var Plants = map[string]classify.Prediction{
	"romero": {Class: "romero", ClassID: 1, Confidence: 0.9796},
	"menta":  {Class: "menta", ClassID: 2, Confidence: 0.9542},
}

// DefaultPlant is returned until another plant is selected.
const DefaultPlant = "romero"

// HumiditySensor reads soil humidity. *actuator.Link satisfies it.
type HumiditySensor interface {
	Humidity() (actuator.Reading, error)
}

// Config configures the mock service.
type Config struct {
	// Delay simulates inference latency.
	Delay time.Duration

	// Sensor backs GET /humidity. Nil disables the endpoint.
	Sensor HumiditySensor

	Logger *slog.Logger
}

// DefaultConfig returns a 100ms simulated inference delay.
func DefaultConfig() Config {
	return Config{Delay: 100 * time.Millisecond}
}

// Server is the mock classification service.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	mu    sync.RWMutex
	plant string
}

// New creates the service.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.With("component", "mockclassifier"),
		plant:  DefaultPlant,
	}

	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
	})
	app.Use(cors.New())

	app.Post("/classify", s.handleClassify)
	app.Get("/health", s.handleHealth)
	app.Get("/humidity", s.handleHumidity)
	app.Post("/toggle-plant", s.handleTogglePlant)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("mock classifier listening", "addr", addr)
	return s.app.Listen(addr)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Plant returns the label the next classification will report.
func (s *Server) Plant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plant
}

// SetPlant selects the label for subsequent classifications.
func (s *Server) SetPlant(plant string) error {
	if _, ok := Plants[plant]; !ok {
		return fmt.Errorf("unknown plant %q", plant)
	}
	s.mu.Lock()
	s.plant = plant
	s.mu.Unlock()
	return nil
}

// PlantNames returns the available labels sorted.
func PlantNames() []string {
	names := make([]string, 0, len(Plants))
	for name := range Plants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(classify.ErrorResponse{Error: msg})
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	var req classify.Request
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.Image == "" {
		return errorJSON(c, fiber.StatusBadRequest, "image is required")
	}
	img, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "image is not valid base64")
	}

	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-c.UserContext().Done():
			return c.UserContext().Err()
		}
	}

	width, height := defaultWidth, defaultHeight
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(img)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	plant := s.Plant()
	pred := Plants[plant]
	resp := classify.Response{
		InferenceID: uuid.NewString(),
		Time:        inferenceTime(),
		Image:       classify.ImageInfo{Width: width, Height: height},
		Predictions: []classify.Prediction{pred},
		Top:         pred.Class,
		Confidence:  pred.Confidence,
	}

	s.logger.Info("classified", "plant", plant, "confidence", pred.Confidence, "bytes", len(img))
	return c.JSON(resp)
}

// inferenceTime returns a plausible inference duration in seconds,
// rounded to five decimals.
func inferenceTime() float64 {
	t := 0.08 + rand.Float64()*0.07
	return math.Round(t*1e5) / 1e5
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(classify.Health{
		Status:          "OK",
		Service:         ServiceName,
		AvailablePlants: PlantNames(),
	})
}

func (s *Server) handleHumidity(c *fiber.Ctx) error {
	if s.cfg.Sensor == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "humidity sensor not configured")
	}
	r, err := s.cfg.Sensor.Humidity()
	if err != nil {
		s.logger.Warn("humidity read failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	s.logger.Info("humidity", "value", r.Value, "raw", r.Raw)
	return c.JSON(fiber.Map{
		"humidity":     r.Value,
		"timestamp":    r.Time.UTC().Format(time.RFC3339),
		"unit":         "%",
		"sensor":       "arduino",
		"raw_response": r.Raw,
	})
}

type toggleRequest struct {
	Plant string `json:"plant"`
}

func (s *Server) handleTogglePlant(c *fiber.Ctx) error {
	req := toggleRequest{Plant: DefaultPlant}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid JSON body")
		}
	}
	if err := s.SetPlant(req.Plant); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Planta no disponible")
	}
	s.logger.Info("next plant selected", "plant", req.Plant)
	return c.JSON(fiber.Map{
		"message": "Proxima clasificacion sera: " + req.Plant,
		"plant":   req.Plant,
	})
}
