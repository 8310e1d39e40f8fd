package plantvision

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-plantvision/internal/httpc"
	"github.com/teslashibe/go-plantvision/pkg/actuator"
	"github.com/teslashibe/go-plantvision/pkg/camera"
	"github.com/teslashibe/go-plantvision/pkg/capture"
	"github.com/teslashibe/go-plantvision/pkg/classify"
	"github.com/teslashibe/go-plantvision/pkg/irrigation"
	"github.com/teslashibe/go-plantvision/pkg/web"
)

// Option customizes an App.
type Option func(*App)

// WithOpener replaces the OpenCV camera opener.
func WithOpener(open capture.Opener) Option {
	return func(a *App) { a.opener = open }
}

// WithClassifier replaces the HTTP classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithActuator uses an already open actuator instead of SerialPort.
func WithActuator(a web.Actuator) Option {
	return func(app *App) { app.actuator = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// App is the plant vision application.
type App struct {
	config Config
	logger *slog.Logger

	opener     capture.Opener
	classifier classify.Classifier
	client     *classify.Client
	session    *capture.Session
	headless   *capture.Headless

	actuator web.Actuator
	link     *actuator.Link

	calculator *irrigation.Calculator
	webServer  *web.Server
}

// New creates an application. Environment overrides are expected to be
// applied already.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "app")
	return a, nil
}

// Init builds every component. Call it after New and before Run.
func (a *App) Init(ctx context.Context) error {
	a.initClassifier(ctx)
	a.initActuator()

	a.calculator = irrigation.NewCalculator(
		irrigation.NewOpenMeteo(a.config.ForecastURL, httpc.Client),
		a.config.PotDiameter,
		irrigation.DefaultCacheTTL,
	)

	if a.config.DashboardPort != "" {
		opts := []web.Option{
			web.WithWaterer(a.calculator),
			web.WithClassifier(a.classifier),
			web.WithStaticDir(a.config.StaticDir),
		}
		if a.client != nil {
			opts = append(opts, web.WithHealthChecker(a.client))
		}
		if a.actuator != nil {
			opts = append(opts, web.WithActuator(a.actuator))
		}
		a.webServer = web.NewServer(a.config.DashboardPort, a.sessionView(), opts...)
	}

	a.session = capture.New(a.classifier, a.cameraOpener(),
		capture.WithConfig(a.config.Capture),
		capture.WithDisplay(a.displayFactory()),
		capture.OnFrame(a.streamFrame),
		capture.OnClassification(a.announce),
	)
	return nil
}

func (a *App) initClassifier(ctx context.Context) {
	if a.classifier != nil {
		return
	}
	a.client = classify.NewClient(
		classify.WithURL(a.config.ClassifyURL),
		classify.WithTimeout(a.config.Capture.RequestTimeout),
	)
	a.classifier = a.client

	h, err := a.client.Health(ctx)
	if err != nil {
		a.logger.Warn("classification service not reachable yet", "url", a.config.ClassifyURL, "error", err)
		return
	}
	a.logger.Info("classification service ready", "service", h.Service, "plants", h.AvailablePlants)
}

func (a *App) initActuator() {
	if a.actuator != nil || a.config.SerialPort == "" {
		return
	}
	cfg := actuator.DefaultConfig(a.config.SerialPort)
	cfg.BaudRate = a.config.BaudRate
	link, err := actuator.Open(cfg)
	if err != nil {
		a.logger.Warn("actuator unavailable", "port", a.config.SerialPort, "error", err)
		return
	}
	a.link = link
	a.actuator = link
}

func (a *App) cameraOpener() capture.Opener {
	if a.opener != nil {
		return a.opener
	}
	return camera.Opener(a.config.Camera)
}

func (a *App) displayFactory() capture.DisplayFactory {
	if a.config.Headless {
		a.headless = capture.NewHeadless()
		return capture.HeadlessFactory(a.headless)
	}
	return camera.WindowFactory(a.config.Camera)
}

// sessionView lets the dashboard be built before the session exists.
func (a *App) sessionView() web.Vision {
	return sessionVision{a}
}

type sessionVision struct{ a *App }

func (v sessionVision) Last() *classify.Classification { return v.a.session.Last() }
func (v sessionVision) Status() capture.Status         { return v.a.session.Status() }
func (v sessionVision) Trigger() bool                  { return v.a.session.Trigger() }

// streamFrame pushes preview frames to dashboard viewers.
func (a *App) streamFrame(f capture.Frame) {
	if a.webServer == nil || a.webServer.CameraClients() == 0 {
		return
	}
	jpeg, err := f.Encode()
	if err != nil {
		a.logger.Debug("preview encode failed", "error", err)
		return
	}
	a.webServer.BroadcastFrame(jpeg)
}

func (a *App) announce(c *classify.Classification) {
	p, known := irrigation.Resolve(c.Plant)
	a.logger.Info("plant detected",
		"plant", c.Plant,
		"confidence", c.Confidence,
		"known", known,
		"water_need", p.WaterNeed())
	if a.webServer != nil {
		a.webServer.BroadcastClassification(c)
	}
}

// Session returns the capture session. It is nil before Init.
func (a *App) Session() *capture.Session {
	return a.session
}

// Headless returns the key source in headless mode, or nil.
func (a *App) Headless() *capture.Headless {
	return a.headless
}

// Run starts the dashboard and runs the capture loop until the operator
// quits, ctx is cancelled, or the camera fails.
func (a *App) Run(ctx context.Context) error {
	if a.webServer != nil {
		a.webServer.StartAsync()
	}
	return a.session.RunContinuous(ctx, a.config.Capture.Interval)
}

// Shutdown releases everything Init acquired.
func (a *App) Shutdown() {
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("dashboard shutdown", "error", err)
		}
	}
	if a.link != nil {
		if err := a.link.Close(); err != nil {
			a.logger.Warn("actuator close", "error", err)
		}
	}
	if a.client != nil {
		a.client.Close()
	}
	a.logger.Info("stopped")
}
