package handlers

import (
	"errors"
	"facetrack/faces"
	"facetrack/utils"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const maxFrameSize = 10 << 20

type FrameResponse struct {
	OutcomeResponse
	Face      bool                   `json:"face"`
	Box       [4]int                 `json:"box"` // x1, y1, x2, y2
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Landmarks [][]float64            `json:"landmarks"`
	Groups    map[string][][]float64 `json:"groups,omitempty"` // Only for 68 point shapes
}

// SessionFrame detects the face in an uploaded JPEG frame and evaluates its landmarks.
// Frames without a face leave the session untouched.
func SessionFrame(c *gin.Context) {
	r := SessionRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, BadRequestResponse)
		return
	}
	if Detector == nil {
		c.JSON(http.StatusServiceUnavailable, DetectionDisabledResponse)
		return
	}
	id := trackingID(c, r.ID)
	if _, err := Tracker.Get(id); err != nil {
		c.JSON(http.StatusNotFound, SessionNotFoundResponse)
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFrameSize+1))
	if err != nil || len(data) == 0 || len(data) > maxFrameSize {
		c.JSON(http.StatusBadRequest, Response{"frame missing or too large"})
		return
	}
	detection, err := Detector.Detect(data)
	if errors.Is(err, faces.ErrNoFace) {
		c.JSON(http.StatusOK, FrameResponse{})
		return
	}
	if errors.Is(err, utils.ErrImageTooLarge) {
		c.JSON(http.StatusBadRequest, Response{err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error detecting face for session %s: %v", id, err)
		c.JSON(http.StatusUnprocessableEntity, Response{err.Error()})
		return
	}
	outcome, status, errResp := evaluateFrame(id, detection.Landmarks)
	if status != http.StatusOK {
		c.JSON(status, errResp)
		return
	}
	resp := FrameResponse{
		OutcomeResponse: outcome,
		Face:            true,
		Box:             [4]int{detection.Box.Min.X, detection.Box.Min.Y, detection.Box.Max.X, detection.Box.Max.Y},
		Width:           detection.Width,
		Height:          detection.Height,
		Landmarks:       fromFrame(detection.Landmarks),
	}
	if groups, err := faces.Groups(detection.Landmarks); err == nil {
		resp.Groups = make(map[string][][]float64, len(groups))
		for name, g := range groups {
			resp.Groups[name] = fromFrame(g)
		}
	}
	c.JSON(http.StatusOK, resp)
}
