// Package web provides the plant vision dashboard.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-plantvision/pkg/actuator"
	"github.com/teslashibe/go-plantvision/pkg/capture"
	"github.com/teslashibe/go-plantvision/pkg/classify"
	"github.com/teslashibe/go-plantvision/pkg/hub"
	"github.com/teslashibe/go-plantvision/pkg/irrigation"
)

// Vision is the read side of the capture loop plus its manual trigger.
// *capture.Session satisfies it.
type Vision interface {
	Last() *classify.Classification
	Status() capture.Status
	Trigger() bool
}

// Actuator drives the irrigation relay. *actuator.Link satisfies it.
type Actuator interface {
	Activate() error
	Deactivate() error
	Humidity() (actuator.Reading, error)
}

// Waterer estimates watering needs. *irrigation.Calculator satisfies it.
type Waterer interface {
	Calculate(ctx context.Context, lat, lon float64, plantID string) (*irrigation.Estimate, error)
	Plants() []irrigation.Plant
}

// HealthChecker reports the classification service's health.
// *classify.Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) (*classify.Health, error)
}

// Option configures a Server.
type Option func(*Server)

// WithActuator enables the humidity and relay endpoints.
func WithActuator(a Actuator) Option {
	return func(s *Server) { s.actuator = a }
}

// WithWaterer enables the watering endpoint.
func WithWaterer(w Waterer) Option {
	return func(s *Server) { s.waterer = w }
}

// WithClassifier enables POST /api/classify-plant, which classifies an
// uploaded image without involving the camera.
func WithClassifier(c classify.Classifier) Option {
	return func(s *Server) { s.classifier = c }
}

// WithHealthChecker backs GET /api/plant-status.
func WithHealthChecker(h HealthChecker) Option {
	return func(s *Server) { s.health = h }
}

// WithStaticDir serves dashboard assets from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server is the web dashboard server.
type Server struct {
	app  *fiber.App
	port string

	vision     Vision
	actuator   Actuator
	waterer    Waterer
	classifier classify.Classifier
	health     HealthChecker
	staticDir  string
	logger     *slog.Logger

	statusHub *hub.Hub
	cameraHub *hub.Hub

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
}

// NewServer creates a dashboard for the given capture loop.
func NewServer(port string, vision Vision, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:      port,
		vision:    vision,
		logger:    slog.Default(),
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")

	app := fiber.New(fiber.Config{
		AppName:               "Plant Vision Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	if s.staticDir != "" {
		app.Static("/", s.staticDir)
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Post("/classify", s.handleClassify)
	api.Post("/classify-plant", s.handleClassifyPlant)
	api.Get("/plant-status", s.handlePlantStatus)
	api.Get("/plants", s.handlePlants)
	api.Get("/watering", s.handleWatering)
	api.Get("/humidity", s.handleHumidity)
	api.Post("/actuator/:state", s.handleActuator)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// startHubs launches the broadcast hubs once.
func (s *Server) startHubs() {
	s.startOnce.Do(func() {
		go s.statusHub.Run(s.ctx)
		go s.cameraHub.Run(s.ctx)
	})
}

// Start starts the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	s.startHubs()
	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Serve is like Start but accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.startHubs()
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	s.startHubs()
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// BroadcastFrame pushes a JPEG frame to camera viewers.
func (s *Server) BroadcastFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// BroadcastClassification pushes a classification event to status viewers.
func (s *Server) BroadcastClassification(c *classify.Classification) {
	if err := s.statusHub.BroadcastJSON(newClassificationEvent(c)); err != nil {
		s.logger.Warn("encode classification event", "error", err)
	}
}

// CameraClients returns the number of live camera viewers. The loop skips
// encoding preview frames when nobody is watching.
func (s *Server) CameraClients() int {
	return s.cameraHub.ClientCount()
}

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
