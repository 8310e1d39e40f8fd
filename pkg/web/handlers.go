package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-plantvision/pkg/actuator"
	"github.com/teslashibe/go-plantvision/pkg/classify"
	"github.com/teslashibe/go-plantvision/pkg/hub"
	"github.com/teslashibe/go-plantvision/pkg/irrigation"
)

// ClassificationEvent is the dashboard view of a classification.
type ClassificationEvent struct {
	Type       string            `json:"type"`
	Plant      string            `json:"plant"`
	Confidence float64           `json:"confidence"`
	Label      string            `json:"label"`
	Timestamp  time.Time         `json:"timestamp"`
	Known      bool              `json:"known"`
	Info       *irrigation.Plant `json:"info,omitempty"`
}

func newClassificationEvent(c *classify.Classification) ClassificationEvent {
	p, known := irrigation.Resolve(c.Plant)
	return ClassificationEvent{
		Type:       "classification",
		Plant:      c.Plant,
		Confidence: c.Confidence,
		Label:      c.Label(),
		Timestamp:  c.Timestamp,
		Known:      known,
		Info:       &p,
	}
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Running         bool                 `json:"running"`
	CameraIndex     int                  `json:"camera_index"`
	IntervalSeconds float64              `json:"interval_seconds"`
	NextInSeconds   float64              `json:"next_in_seconds"`
	Classified      uint64               `json:"classified"`
	Failed          uint64               `json:"failed"`
	Last            *ClassificationEvent `json:"last"`
	CameraClients   int                  `json:"camera_clients"`
	Actuator        bool                 `json:"actuator"`
}

// PlantInfo is one entry of GET /api/plants.
type PlantInfo struct {
	irrigation.Plant
	WaterNeed string `json:"water_need"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "plantvision-dashboard",
	})
}

// handleStatus returns the capture loop state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.vision.Status()
	resp := StatusResponse{
		Running:         st.Running,
		CameraIndex:     st.CameraIndex,
		IntervalSeconds: st.Interval.Seconds(),
		NextInSeconds:   st.NextIn.Seconds(),
		Classified:      st.Classified,
		Failed:          st.Failed,
		CameraClients:   s.CameraClients(),
		Actuator:        s.actuator != nil,
	}
	if st.Last != nil {
		ev := newClassificationEvent(st.Last)
		resp.Last = &ev
	}
	return c.JSON(resp)
}

// handleClassify queues a manual classification.
func (s *Server) handleClassify(c *fiber.Ctx) error {
	queued := s.vision.Trigger()
	s.logger.Info("manual classification requested", "queued", queued)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": queued})
}

// ClassifyPlantResponse is returned by POST /api/classify-plant.
type ClassifyPlantResponse struct {
	Detected   string           `json:"detected"`
	Confidence float64          `json:"confidence"`
	PlantUsed  string           `json:"plant_used"`
	PlantInfo  irrigation.Plant `json:"plant_info"`
	AIResponse json.RawMessage  `json:"ai_response,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Confidence reported in the fallback when classification fails.
const fallbackConfidence = 0.5

// handleClassifyPlant classifies an uploaded base64 image. Labels outside
// the catalog are mapped to the default plant.
func (s *Server) handleClassifyPlant(c *fiber.Ctx) error {
	if s.classifier == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "classifier not configured")
	}

	var req classify.Request
	if err := c.BodyParser(&req); err != nil || req.Image == "" {
		return errorJSON(c, fiber.StatusBadRequest, "image is required")
	}
	img, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "image is not valid base64")
	}

	result, err := s.classifier.Classify(c.UserContext(), img)
	if err != nil || result == nil {
		s.logger.Warn("upload classification failed", "error", err)
		fallback, _ := irrigation.Lookup(irrigation.DefaultPlant)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error al clasificar la planta",
			"fallback": ClassifyPlantResponse{
				Detected:   fallback.ID,
				Confidence: fallbackConfidence,
				PlantUsed:  fallback.ID,
				PlantInfo:  fallback,
				Timestamp:  time.Now().UTC(),
			},
		})
	}

	plant, known := irrigation.Resolve(result.Plant)
	if !known {
		s.logger.Warn("unrecognized plant, using default", "detected", result.Plant, "used", plant.ID)
	}
	s.logger.Info("upload classified", "detected", result.Plant, "confidence", result.Confidence, "used", plant.ID)

	return c.JSON(ClassifyPlantResponse{
		Detected:   result.Plant,
		Confidence: result.Confidence,
		PlantUsed:  plant.ID,
		PlantInfo:  plant,
		AIResponse: result.Raw,
		Timestamp:  result.Timestamp,
	})
}

// PlantStatusResponse is returned by GET /api/plant-status.
type PlantStatusResponse struct {
	VisionService *classify.Health `json:"vision_service"`
	BackendPlants []string         `json:"backend_plants"`
	Status        string           `json:"status"`
	Error         string           `json:"error,omitempty"`
}

// Plant status values.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// handlePlantStatus reports whether the classification service is up.
func (s *Server) handlePlantStatus(c *fiber.Ctx) error {
	resp := PlantStatusResponse{
		BackendPlants: irrigation.PlantIDs(),
		Status:        StatusDisconnected,
	}
	if s.health == nil {
		resp.Error = "classification service not configured"
		return c.JSON(resp)
	}

	h, err := s.health.Health(c.UserContext())
	if err != nil {
		s.logger.Warn("classification service health check failed", "error", err)
		resp.Error = "classification service unavailable"
		return c.JSON(resp)
	}
	resp.VisionService = h
	resp.Status = StatusConnected
	return c.JSON(resp)
}

// handlePlants lists the plant catalog.
func (s *Server) handlePlants(c *fiber.Ctx) error {
	plants := irrigation.Plants()
	if s.waterer != nil {
		plants = s.waterer.Plants()
	}
	out := make([]PlantInfo, len(plants))
	for i, p := range plants {
		out[i] = PlantInfo{Plant: p, WaterNeed: p.WaterNeed()}
	}
	return c.JSON(out)
}

// handleWatering estimates today's water requirement.
func (s *Server) handleWatering(c *fiber.Ctx) error {
	if s.waterer == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "watering calculator not configured")
	}

	lat, err := floatQuery(c, "lat", irrigation.DefaultLatitude)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	lon, err := floatQuery(c, "lon", irrigation.DefaultLongitude)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	plant := c.Query("plant")
	if plant == "" {
		plant = irrigation.Menta
		if last := s.vision.Last(); last != nil {
			p, _ := irrigation.Resolve(last.Plant)
			plant = p.ID
		}
	}

	est, err := s.waterer.Calculate(c.UserContext(), lat, lon, plant)
	if err != nil {
		s.logger.Warn("watering estimate failed", "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Failed to calculate watering needs")
	}
	return c.JSON(est)
}

func floatQuery(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

// handleHumidity reads the soil sensor.
func (s *Server) handleHumidity(c *fiber.Ctx) error {
	if s.actuator == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "actuator not configured")
	}
	r, err := s.actuator.Humidity()
	if err != nil {
		s.logger.Warn("humidity read failed", "error", err)
		return errorJSON(c, fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{
		"humidity":     r.Value,
		"timestamp":    r.Time,
		"unit":         "%",
		"raw_response": r.Raw,
	})
}

// handleActuator switches the relay on or off.
func (s *Server) handleActuator(c *fiber.Ctx) error {
	if s.actuator == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "actuator not configured")
	}

	var err error
	switch state := strings.ToLower(c.Params("state")); state {
	case "on":
		err = s.actuator.Activate()
	case "off":
		err = s.actuator.Deactivate()
	default:
		return errorJSON(c, fiber.StatusBadRequest, "state must be on or off")
	}
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, actuator.ErrIO) {
			status = fiber.StatusBadGateway
		}
		return errorJSON(c, status, err.Error())
	}

	s.logger.Info("actuator switched", "state", c.Params("state"))
	return c.JSON(fiber.Map{"state": strings.ToLower(c.Params("state"))})
}

// handleCameraWS streams JPEG frames.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Serve()
}

// handleStatusWS streams classification events, starting with the
// current one.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if last := s.vision.Last(); last != nil {
		if err := c.WriteJSON(newClassificationEvent(last)); err != nil {
			c.Close()
			return
		}
	}
	hub.NewClient(s.statusHub, c).Serve()
}
