package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-plantvision/pkg/classify"
)

// Session owns the camera, the display and the last classification.
type Session struct {
	cfg        Config
	classifier classify.Classifier
	open       Opener
	newDisplay DisplayFactory
	now        func() time.Time
	logger     *slog.Logger

	onFrame          func(Frame)
	onClassification func(*classify.Classification)

	// mu guards the device handles between Start, Stop and the loop.
	mu      sync.Mutex
	cam     Camera
	display Display

	last        atomic.Pointer[classify.Classification]
	running     atomic.Bool
	cameraIndex atomic.Int64
	interval    atomic.Int64 // nanoseconds
	nextDue     atomic.Int64 // unix nanoseconds, 0 = due now
	classified  atomic.Uint64
	failed      atomic.Uint64

	trigger chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithDisplay sets the display factory. The default is headless.
func WithDisplay(f DisplayFactory) Option {
	return func(s *Session) { s.newDisplay = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// OnFrame registers a callback for every preview frame. The frame is only
// valid for the duration of the call.
func OnFrame(fn func(Frame)) Option {
	return func(s *Session) { s.onFrame = fn }
}

// OnClassification registers a callback for every successful cycle.
func OnClassification(fn func(*classify.Classification)) Option {
	return func(s *Session) { s.onClassification = fn }
}

// New creates a session. Nothing is opened until Start.
func New(classifier classify.Classifier, open Opener, opts ...Option) *Session {
	s := &Session{
		cfg:        DefaultConfig(),
		classifier: classifier,
		open:       open,
		now:        time.Now,
		logger:     slog.Default(),
		trigger:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newDisplay == nil {
		s.newDisplay = HeadlessFactory(NewHeadless())
	}
	s.logger = s.logger.With("component", "capture")
	s.cameraIndex.Store(int64(s.cfg.CameraIndex))
	s.interval.Store(int64(s.cfg.Interval))
	return s
}

// Start opens the camera, falling back to the secondary index, and then the
// display. It is a no-op if the session is already started.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam != nil {
		return nil
	}

	cam, index, err := s.openCamera()
	if err != nil {
		return err
	}

	display, err := s.newDisplay()
	if err != nil {
		cam.Close()
		return fmt.Errorf("capture: open display: %w", err)
	}

	s.cam = cam
	s.display = display
	s.cameraIndex.Store(int64(index))
	s.logger.Info("camera started", "index", index)
	return nil
}

func (s *Session) openCamera() (Camera, int, error) {
	indices := []int{s.cfg.CameraIndex}
	if s.cfg.FallbackIndex >= 0 && s.cfg.FallbackIndex != s.cfg.CameraIndex {
		indices = append(indices, s.cfg.FallbackIndex)
	}

	var errs []error
	for _, idx := range indices {
		cam, err := s.open(idx)
		if err == nil {
			return cam, idx, nil
		}
		s.logger.Warn("camera open failed", "index", idx, "error", err)
		errs = append(errs, err)
	}
	return nil, 0, fmt.Errorf("%w: %w", ErrDeviceUnavailable, errors.Join(errs...))
}

// Stop releases the camera and closes the display. Calling it again is a
// no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running.Store(false)

	var errs []error
	if s.cam != nil {
		if err := s.cam.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close camera: %w", err))
		}
		s.cam = nil
		s.logger.Info("camera released")
	}
	if s.display != nil {
		if err := s.display.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display: %w", err))
		}
		s.display = nil
	}
	return errors.Join(errs...)
}

// Last returns the most recent classification, or nil before the first
// successful cycle.
func (s *Session) Last() *classify.Classification {
	return s.last.Load()
}

// Trigger asks the running loop to classify on its next tick. It returns
// false if a request is already pending. A request made before
// RunContinuous starts is dropped when the loop starts.
func (s *Session) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// CaptureAndClassify runs one classification cycle. A grab failure returns
// ErrFrameRead; every other failure is a *classify.Failure. In both cases
// the previous classification is kept.
func (s *Session) CaptureAndClassify(ctx context.Context) (*classify.Classification, error) {
	s.mu.Lock()
	cam := s.cam
	s.mu.Unlock()
	if cam == nil {
		return nil, ErrNotStarted
	}

	frame, err := cam.Read()
	if err != nil {
		s.logger.Warn("frame grab failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFrameRead, err)
	}
	defer frame.Close()

	jpeg, err := frame.Encode()
	if err != nil {
		return nil, s.fail(classify.NewFailure(classify.KindEncode, err))
	}
	if s.cfg.SnapshotPath != "" {
		if err := os.WriteFile(s.cfg.SnapshotPath, jpeg, 0o644); err != nil {
			return nil, s.fail(classify.NewFailure(classify.KindEncode, err))
		}
		s.logger.Debug("snapshot written", "path", s.cfg.SnapshotPath, "bytes", len(jpeg))
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	c, err := s.classifier.Classify(ctx, jpeg)
	if err != nil {
		var f *classify.Failure
		if !errors.As(err, &f) {
			f = classify.NewFailure(classify.KindNetwork, err)
		}
		return nil, s.fail(f)
	}
	if c == nil {
		return nil, s.fail(&classify.Failure{Kind: classify.KindDecode, Message: "empty classification"})
	}

	s.last.Store(c)
	s.classified.Add(1)
	s.logger.Info("plant classified", "plant", c.Plant, "confidence", fmt.Sprintf("%.2f%%", c.Confidence*100))
	if s.onClassification != nil {
		s.onClassification(c)
	}
	return c, nil
}

func (s *Session) fail(f *classify.Failure) error {
	s.failed.Add(1)
	s.logger.Warn("classification failed", "kind", f.Kind.String(), "error", f)
	return f
}

// RunContinuous starts the session and runs the preview loop until the
// quit key, a frame read failure, or ctx is cancelled. The session is
// stopped on return. A non-positive interval uses Config.Interval.
func (s *Session) RunContinuous(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.cfg.Interval
	}
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	s.mu.Lock()
	cam, display := s.cam, s.display
	s.mu.Unlock()

	// Requests made before the loop started are covered by the initial
	// classification on the first tick.
	select {
	case <-s.trigger:
	default:
	}

	s.interval.Store(int64(interval))
	s.running.Store(true)
	s.logger.Info("continuous capture started", "interval", interval, "keys", "q=quit c=classify")

	var lastFire time.Time
	fired := false

	for {
		if ctx.Err() != nil {
			s.logger.Info("capture interrupted")
			return nil
		}

		frame, err := cam.Read()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFrameRead, err)
		}

		now := s.now()
		var remaining time.Duration
		if fired {
			remaining = max(0, interval-now.Sub(lastFire))
		}
		s.nextDue.Store(now.Add(remaining).UnixNano())

		if err := display.Show(frame, BuildOverlay(s.Last(), remaining)); err != nil {
			s.logger.Warn("preview render failed", "error", err)
		}
		if s.onFrame != nil {
			s.onFrame(frame)
		}
		frame.Close()

		if !fired || now.Sub(lastFire) >= interval {
			s.CaptureAndClassify(ctx)
			lastFire, fired = now, true
		}

		manual := false
		switch display.WaitKey(s.cfg.Tick) & 0xff {
		case KeyQuit:
			s.logger.Info("quit requested")
			return nil
		case KeyClassify:
			manual = true
		}
		select {
		case <-s.trigger:
			manual = true
		default:
		}

		if manual {
			pressed := s.now()
			s.logger.Info("manual classification")
			s.CaptureAndClassify(ctx)
			lastFire, fired = pressed, true
		}
	}
}

// Status is a snapshot of the session for observers.
type Status struct {
	Running     bool
	CameraIndex int
	Interval    time.Duration
	NextIn      time.Duration
	Last        *classify.Classification
	Classified  uint64
	Failed      uint64
}

// Status returns a snapshot safe to call from any goroutine.
func (s *Session) Status() Status {
	st := Status{
		Running:     s.running.Load(),
		CameraIndex: int(s.cameraIndex.Load()),
		Interval:    time.Duration(s.interval.Load()),
		Last:        s.Last(),
		Classified:  s.classified.Load(),
		Failed:      s.failed.Load(),
	}
	if due := s.nextDue.Load(); due != 0 && st.Running {
		st.NextIn = max(0, time.Unix(0, due).Sub(s.now()))
	}
	return st
}
