package handlers

import (
	"errors"
	"facetrack/config"
	"facetrack/faces"
	"facetrack/models"
	"facetrack/stability"
	"facetrack/tracking"
	"math"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Response struct {
	Error string `json:"error"`
}

const (
	// Cookie session key remembering the browser's current tracking session
	trackingIDKey = "tracking_id"
)

var (
	Tracker  *tracking.Registry
	Detector faces.Detector // nil if face detection is disabled

	// Predefined errors
	OKResponse                = Response{}
	BadRequestResponse        = Response{"bad request"}
	SessionNotFoundResponse   = Response{"tracking session not found"}
	DetectionDisabledResponse = Response{"face detection is disabled"}
	DBErrorResponse           = Response{"DB Error"}
	InternalErrorResponse     = Response{"internal error"}
)

func Init(tracker *tracking.Registry, detector faces.Detector) {
	Tracker = tracker
	Detector = detector
	Tracker.OnRemove = func(s *tracking.Session) {
		if err := models.CloseTrackingSession(s.ID); err != nil {
			log.Printf("Error closing tracking session %s: %v", s.ID, err)
		}
		closeWatchers(s.ID)
	}
}

type OutcomeResponse struct {
	Seq          uint64                `json:"seq"`
	Kind         stability.OutcomeKind `json:"kind"`
	MeanDistance *float64              `json:"mean_distance"` // null for the baseline frame and non-finite values
	Render       bool                  `json:"render"`
}

func toOutcomeResponse(r tracking.Result) OutcomeResponse {
	resp := OutcomeResponse{
		Seq:    r.Seq,
		Kind:   r.Outcome.Kind,
		Render: r.Outcome.Moved(),
	}
	if r.Outcome.Kind == stability.NoBaseline {
		resp.Render = config.FIRST_FRAME_RENDER
	} else if d := r.Outcome.MeanDistance; !math.IsNaN(d) && !math.IsInf(d, 0) {
		resp.MeanDistance = &d
	}
	return resp
}

// evaluateFrame runs frame through the session's filter, records the result and
// notifies the session's websocket watchers
func evaluateFrame(id string, frame stability.Frame) (OutcomeResponse, int, Response) {
	result, err := Tracker.Evaluate(id, frame)
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrSessionNotFound):
			return OutcomeResponse{}, http.StatusNotFound, SessionNotFoundResponse
		case errors.Is(err, stability.ErrInputMismatch):
			if dbErr := models.RecordMismatch(id); dbErr != nil {
				log.Printf("Error recording mismatch for %s: %v", id, dbErr)
			}
			return OutcomeResponse{}, http.StatusConflict, Response{err.Error()}
		}
		log.Printf("Error evaluating frame for %s: %v", id, err)
		return OutcomeResponse{}, http.StatusInternalServerError, InternalErrorResponse
	}
	if err := models.RecordOutcome(id, result.Seq, result.Outcome, config.RECORD_OUTCOMES); err != nil {
		log.Printf("Error recording outcome %d for %s: %v", result.Seq, id, err)
	}
	resp := toOutcomeResponse(result)
	notifyWatchers(id, wsOutcomeMessage(resp))
	return resp, http.StatusOK, OKResponse
}

// trackingID returns the explicitly requested session or the one stored in the cookie session
func trackingID(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id, ok := sessions.Default(c).Get(trackingIDKey).(string); ok {
		return id
	}
	return ""
}

func toFrame(landmarks [][]float64) stability.Frame {
	frame := make(stability.Frame, len(landmarks))
	for i, p := range landmarks {
		frame[i] = stability.Point(p)
	}
	return frame
}

func fromFrame(frame stability.Frame) [][]float64 {
	result := make([][]float64, len(frame))
	for i, p := range frame {
		result[i] = []float64(p)
	}
	return result
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
