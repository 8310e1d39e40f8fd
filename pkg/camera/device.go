package camera

import (
	"errors"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-plantvision/pkg/capture"
)

// ErrEmptyFrame is returned when the device delivers no image data.
var ErrEmptyFrame = errors.New("camera: empty frame")

// Device is an open OpenCV video capture.
type Device struct {
	index   int
	vc      *gocv.VideoCapture
	quality int
}

// Opener returns a capture.Opener that opens OpenCV devices with cfg.
func Opener(cfg Config) capture.Opener {
	return func(index int) (capture.Camera, error) {
		return Open(index, cfg)
	}
}

// Open opens the video device at index.
func Open(index int, cfg Config) (*Device, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("camera %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d: device not opened", index)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	slog.Default().With("component", "camera").Info("device opened",
		"index", index,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight))

	return &Device{index: index, vc: vc, quality: cfg.Quality}, nil
}

// Read grabs the next frame.
func (d *Device) Read() (capture.Frame, error) {
	mat := gocv.NewMat()
	if ok := d.vc.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("camera %d: read failed", d.index)
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}
	return &Frame{mat: mat, quality: d.quality}, nil
}

// Close releases the device.
func (d *Device) Close() error {
	return d.vc.Close()
}

// Frame is a captured OpenCV image.
type Frame struct {
	mat     gocv.Mat
	quality int
}

// Encode returns the frame as JPEG bytes.
func (f *Frame) Encode() ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, f.mat,
		[]int{int(gocv.IMWriteJpegQuality), f.quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	defer buf.Close()

	src := buf.GetBytes()
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// Close releases the image buffer.
func (f *Frame) Close() error {
	return f.mat.Close()
}
