package mockclassifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-plantvision/pkg/actuator"
	"github.com/teslashibe/go-plantvision/pkg/classify"
)

type fakeSensor struct {
	reading actuator.Reading
	err     error
}

func (f *fakeSensor) Humidity() (actuator.Reading, error) { return f.reading, f.err }

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func post(t *testing.T, s *Server, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func get(t *testing.T, s *Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func classifyBody(img []byte) string {
	b, _ := json.Marshal(classify.Request{Image: base64.StdEncoding.EncodeToString(img)})
	return string(b)
}

func TestClassify(t *testing.T) {
	s := New(Config{})
	code, body := post(t, s, "/classify", classifyBody(testJPEG(t, 32, 16)))
	if code != 200 {
		t.Fatalf("status = %d, want 200 (%s)", code, body)
	}

	var resp classify.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Top != "romero" || resp.Confidence != 0.9796 {
		t.Errorf("top = %s %v, want romero 0.9796", resp.Top, resp.Confidence)
	}
	if len(resp.Predictions) != 1 || resp.Predictions[0].ClassID != 1 {
		t.Errorf("predictions = %+v", resp.Predictions)
	}
	if resp.Image.Width != 32 || resp.Image.Height != 16 {
		t.Errorf("image = %+v, want 32x16", resp.Image)
	}
	if resp.Time < 0.08 || resp.Time > 0.15 {
		t.Errorf("time = %v, want within [0.08, 0.15]", resp.Time)
	}
	if len(resp.InferenceID) != 36 {
		t.Errorf("inference_id = %q, want uuid", resp.InferenceID)
	}

	_, body2 := post(t, s, "/classify", classifyBody(testJPEG(t, 32, 16)))
	var resp2 classify.Response
	json.Unmarshal(body2, &resp2)
	if resp2.InferenceID == resp.InferenceID {
		t.Error("inference ids should be unique")
	}
}

func TestClassifyNonJPEGUsesDefaultSize(t *testing.T) {
	s := New(Config{})
	code, body := post(t, s, "/classify", classifyBody([]byte("not an image")))
	if code != 200 {
		t.Fatalf("status = %d, want 200", code)
	}
	var resp classify.Response
	json.Unmarshal(body, &resp)
	if resp.Image.Width != 640 || resp.Image.Height != 480 {
		t.Errorf("image = %+v, want 640x480", resp.Image)
	}
}

func TestClassifyBadRequest(t *testing.T) {
	s := New(Config{})
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing image", `{}`},
		{"invalid base64", `{"image":"***"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := post(t, s, "/classify", tt.body)
			if code != 400 {
				t.Errorf("status = %d, want 400", code)
			}
			var e classify.ErrorResponse
			if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
				t.Errorf("body = %s, want {error}", body)
			}
		})
	}
}

func TestTogglePlant(t *testing.T) {
	s := New(Config{})

	code, _ := post(t, s, "/toggle-plant", `{"plant":"menta"}`)
	if code != 200 {
		t.Fatalf("status = %d, want 200", code)
	}
	if s.Plant() != "menta" {
		t.Errorf("Plant() = %q, want menta", s.Plant())
	}

	_, body := post(t, s, "/classify", classifyBody(testJPEG(t, 8, 8)))
	var resp classify.Response
	json.Unmarshal(body, &resp)
	if resp.Top != "menta" || resp.Confidence != 0.9542 {
		t.Errorf("top = %s %v, want menta 0.9542", resp.Top, resp.Confidence)
	}

	code, _ = post(t, s, "/toggle-plant", `{"plant":"cactus"}`)
	if code != 400 {
		t.Errorf("unknown plant status = %d, want 400", code)
	}
	if s.Plant() != "menta" {
		t.Errorf("Plant() = %q after rejected toggle, want menta", s.Plant())
	}
}

func TestHealth(t *testing.T) {
	s := New(Config{})
	code, body := get(t, s, "/health")
	if code != 200 {
		t.Fatalf("status = %d, want 200", code)
	}
	var h classify.Health
	json.Unmarshal(body, &h)
	if h.Status != "OK" || h.Service != ServiceName {
		t.Errorf("health = %+v", h)
	}
	if len(h.AvailablePlants) != 2 || h.AvailablePlants[0] != "menta" {
		t.Errorf("available_plants = %v, want [menta romero]", h.AvailablePlants)
	}
}

func TestHumidity(t *testing.T) {
	if code, _ := get(t, New(Config{}), "/humidity"); code != 503 {
		t.Errorf("no sensor status = %d, want 503", code)
	}

	sensor := &fakeSensor{reading: actuator.Reading{
		Value: 45.2,
		Raw:   "Humidity: 45.2%",
		Time:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
	s := New(Config{Sensor: sensor})

	code, body := get(t, s, "/humidity")
	if code != 200 {
		t.Fatalf("status = %d, want 200", code)
	}
	var got map[string]any
	json.Unmarshal(body, &got)
	if got["humidity"] != 45.2 || got["sensor"] != "arduino" || got["timestamp"] != "2026-05-01T12:00:00Z" {
		t.Errorf("body = %v", got)
	}

	sensor.err = &actuator.IOError{Op: "read", Err: actuator.ErrTimeout}
	if code, _ := get(t, s, "/humidity"); code != 500 {
		t.Errorf("sensor error status = %d, want 500", code)
	}
}

func TestClientAgainstMock(t *testing.T) {
	s := New(Config{Delay: 10 * time.Millisecond})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.Serve(ln)
	defer s.Shutdown()

	c := classify.NewClient(classify.WithURL("http://" + ln.Addr().String() + "/classify"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := c.Classify(ctx, testJPEG(t, 16, 16))
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Plant != "romero" || got.Confidence != 0.9796 {
		t.Errorf("Classify() = %+v, want romero 0.9796", got)
	}

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Service != ServiceName {
		t.Errorf("Health().Service = %q", h.Service)
	}
}

func TestClientSeesServiceTimeout(t *testing.T) {
	s := New(Config{Delay: 500 * time.Millisecond})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.Serve(ln)
	defer s.Shutdown()

	c := classify.NewClient(
		classify.WithURL("http://"+ln.Addr().String()+"/classify"),
		classify.WithTimeout(50*time.Millisecond),
	)
	_, err = c.Classify(context.Background(), testJPEG(t, 8, 8))
	var f *classify.Failure
	if !errors.As(err, &f) || f.Kind != classify.KindTimeout {
		t.Errorf("Classify() error = %v, want timeout failure", err)
	}
}

func TestSetPlant(t *testing.T) {
	s := New(DefaultConfig())
	if err := s.SetPlant("ficus"); err == nil {
		t.Error("SetPlant(ficus) = nil, want error")
	}
	if err := s.SetPlant("menta"); err != nil {
		t.Errorf("SetPlant(menta) = %v", err)
	}
}
