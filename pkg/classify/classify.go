// Package classify talks to the plant Classification Service.
//
// The service accepts a base64-encoded JPEG and answers with a
// Roboflow-shaped prediction. Client turns a successful answer into an
// immutable Classification; every other outcome is a *Failure.
//
//	client := classify.NewClient(classify.WithURL("http://localhost:5001/classify"))
//	c, err := client.Classify(ctx, jpeg)
//	if errors.Is(err, classify.ErrClassification) {
//	    // log and keep the previous classification
//	}
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Classifier classifies a single JPEG-encoded frame.
type Classifier interface {
	Classify(ctx context.Context, jpeg []byte) (*Classification, error)
}

// Classification is the result of one successful classification cycle.
// It is never modified after construction.
type Classification struct {
	Plant      string          `json:"plant"`
	Confidence float64         `json:"confidence"` // 0-1
	Timestamp  time.Time       `json:"timestamp"`
	Raw        json.RawMessage `json:"full_response,omitempty"`
}

// Label renders the classification as shown on the preview overlay,
// e.g. "Planta: romero (98.0%)".
func (c *Classification) Label() string {
	return fmt.Sprintf("Planta: %s (%.1f%%)", c.Plant, c.Confidence*100)
}

// Request is the body posted to the classify endpoint.
type Request struct {
	Image string `json:"image"` // base64 JPEG
}

// Prediction is one candidate label in a service response.
type Prediction struct {
	Class      string  `json:"class"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// ImageInfo describes the image the service classified.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Response is the JSON body returned by POST /classify.
type Response struct {
	InferenceID string       `json:"inference_id"`
	Time        float64      `json:"time"`
	Image       ImageInfo    `json:"image"`
	Predictions []Prediction `json:"predictions"`
	Top         string       `json:"top"`
	Confidence  float64      `json:"confidence"`
}

// Health is the JSON body returned by GET /health.
type Health struct {
	Status          string   `json:"status"`
	Service         string   `json:"service"`
	AvailablePlants []string `json:"available_plants"`
}

// ErrorResponse is the body the service sends with non-200 statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
