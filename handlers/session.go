package handlers

import (
	"errors"
	"facetrack/config"
	"facetrack/models"
	"io"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type CreateSessionRequest struct {
	Threshold  float64 `json:"threshold" binding:"omitempty,gt=0"`
	Dimensions int     `json:"dimensions" binding:"omitempty,oneof=2 3"`
}

type SessionRequest struct {
	ID string `form:"id"`
}

type OutcomesRequest struct {
	ID    string `form:"id"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

type EvaluateRequest struct {
	ID        string      `json:"id"`
	Landmarks [][]float64 `json:"landmarks" binding:"required"`
}

type SessionInfo struct {
	ID         string  `json:"id"`
	Threshold  float64 `json:"threshold"`
	Dimensions int     `json:"dimensions"`
}

type SessionStatusResponse struct {
	SessionInfo
	CreatedAt  int64  `json:"created_at"`
	Frames     uint64 `json:"frames"`
	Moves      uint64 `json:"moves"`
	Mismatches uint64 `json:"mismatches"`
	Baseline   int    `json:"baseline"` // Landmark count of the stored frame, 0 if none
}

type OutcomeInfo struct {
	Seq          uint64   `json:"seq"`
	Kind         string   `json:"kind"`
	MeanDistance *float64 `json:"mean_distance"`
	CreatedAt    int64    `json:"created_at"`
}

func SessionCreate(c *gin.Context) {
	r := CreateSessionRequest{}
	// An empty body means "use the defaults"
	if err := c.ShouldBindJSON(&r); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if r.Threshold == 0 {
		r.Threshold = config.STABILITY_THRESHOLD
	}
	if r.Dimensions == 0 {
		r.Dimensions = config.STABILITY_DIMENSIONS
	}
	s, err := Tracker.Create(r.Threshold, r.Dimensions)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if _, err = models.NewTrackingSession(s.ID, r.Threshold, r.Dimensions); err != nil {
		log.Printf("Error saving tracking session %s: %v", s.ID, err)
		Tracker.Remove(s.ID)
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	session := sessions.Default(c)
	session.Set(trackingIDKey, s.ID)
	if err = session.Save(); err != nil {
		log.Printf("Error saving cookie session: %v", err)
	}
	c.JSON(http.StatusOK, SessionInfo{
		ID:         s.ID,
		Threshold:  s.Filter.Threshold(),
		Dimensions: s.Filter.Dimensionality(),
	})
}

func SessionEvaluate(c *gin.Context) {
	r := EvaluateRequest{}
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	resp, status, errResp := evaluateFrame(trackingID(c, r.ID), toFrame(r.Landmarks))
	if status != http.StatusOK {
		c.JSON(status, errResp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func SessionReset(c *gin.Context) {
	r := SessionRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, BadRequestResponse)
		return
	}
	if err := Tracker.Reset(trackingID(c, r.ID)); err != nil {
		c.JSON(http.StatusNotFound, SessionNotFoundResponse)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

func SessionDelete(c *gin.Context) {
	r := SessionRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, BadRequestResponse)
		return
	}
	id := trackingID(c, r.ID)
	if !Tracker.Remove(id) {
		c.JSON(http.StatusNotFound, SessionNotFoundResponse)
		return
	}
	session := sessions.Default(c)
	if session.Get(trackingIDKey) == id {
		session.Delete(trackingIDKey)
		_ = session.Save()
	}
	c.JSON(http.StatusOK, OKResponse)
}

func SessionStatus(c *gin.Context) {
	r := SessionRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, BadRequestResponse)
		return
	}
	s, err := Tracker.Get(trackingID(c, r.ID))
	if err != nil {
		c.JSON(http.StatusNotFound, SessionNotFoundResponse)
		return
	}
	ts, err := models.TrackingSessionByID(s.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, SessionStatusResponse{
		SessionInfo: SessionInfo{
			ID:         s.ID,
			Threshold:  s.Filter.Threshold(),
			Dimensions: s.Filter.Dimensionality(),
		},
		CreatedAt:  ts.CreatedAt,
		Frames:     ts.Frames,
		Moves:      ts.Moves,
		Mismatches: ts.Mismatches,
		Baseline:   len(s.Filter.Baseline()),
	})
}

// SessionOutcomes lists recorded outcomes, also for sessions that are no longer live
func SessionOutcomes(c *gin.Context) {
	r := OutcomesRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if r.Limit == 0 {
		r.Limit = 100
	}
	id := trackingID(c, r.ID)
	if _, err := models.TrackingSessionByID(id); err != nil {
		c.JSON(http.StatusNotFound, SessionNotFoundResponse)
		return
	}
	outcomes, err := models.FrameOutcomesFor(id, r.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	result := make([]OutcomeInfo, 0, len(outcomes))
	for _, o := range outcomes {
		result = append(result, OutcomeInfo{
			Seq:          o.Seq,
			Kind:         o.Kind,
			MeanDistance: o.MeanDistance,
			CreatedAt:    o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, result)
}
