package camera

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-plantvision/pkg/capture"
)

// Window is an OpenCV preview window.
type Window struct {
	win       *gocv.Window
	fontScale float64
}

// NewWindow opens a preview window.
func NewWindow(cfg Config) *Window {
	return &Window{
		win:       gocv.NewWindow(cfg.WindowName),
		fontScale: cfg.FontScale,
	}
}

// WindowFactory returns a capture.DisplayFactory that opens a Window.
func WindowFactory(cfg Config) capture.DisplayFactory {
	return func() (capture.Display, error) {
		return NewWindow(cfg), nil
	}
}

// Show draws the overlay on a copy of the frame and displays it.
func (w *Window) Show(frame capture.Frame, overlay capture.Overlay) error {
	f, ok := frame.(*Frame)
	if !ok {
		return fmt.Errorf("camera: cannot display %T", frame)
	}

	img := f.mat.Clone()
	defer img.Close()

	for _, line := range overlay.Lines {
		gocv.PutText(&img, line.Text, image.Pt(line.X, line.Y),
			gocv.FontHersheySimplex, line.Scale*w.fontScale, line.Color, line.Thickness)
	}
	w.win.IMShow(img)
	return nil
}

// WaitKey pumps the window event loop for up to d.
func (w *Window) WaitKey(d time.Duration) int {
	ms := int(d.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return w.win.WaitKey(ms)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
