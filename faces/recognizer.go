package faces

import (
	"bytes"
	"facetrack/utils"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"
	log "github.com/sirupsen/logrus"
)

// Recognizer detects faces and their landmarks with dlib. The shape model found in
// the models directory decides the landmark count (5 or 68 points).
type Recognizer struct {
	rec       *face.Recognizer
	inputSize uint
	maxPixels int
	mutex     sync.Mutex
}

// NewRecognizer loads the dlib models. Frames are downscaled to fit inputSize before
// detection, frames declaring more than maxPixels pixels are refused undecoded.
func NewRecognizer(modelsDir string, inputSize, maxPixels int) (*Recognizer, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("error creating recognizer from %s: %w", modelsDir, err)
	}
	if inputSize < 0 {
		inputSize = 0
	}
	return &Recognizer{rec: rec, inputSize: uint(inputSize), maxPixels: maxPixels}, nil
}

func (r *Recognizer) Close() {
	r.rec.Close()
}

// Detect returns the largest face in the image, with coordinates in source image pixels
func (r *Recognizer) Detect(jpegData []byte) (result Detection, err error) {
	scaled, err := utils.ScaleForDetection(r.inputSize, r.maxPixels, bytes.NewReader(jpegData))
	if err != nil {
		return result, fmt.Errorf("cannot decode frame: %w", err)
	}
	r.mutex.Lock()
	found, err := r.rec.Recognize(scaled.Data)
	r.mutex.Unlock()
	if err != nil {
		return result, err
	}
	best := largest(found)
	if best == nil {
		return result, ErrNoFace
	}
	if len(found) > 1 {
		log.Debugf("Found %d faces, tracking the largest", len(found))
	}
	result = Detection{
		Box:       resizeRect(best.Rectangle, scaled.Scaled, scaled.Original),
		Landmarks: ResizeFrame(shapesToFrame(best.Shapes), scaled.Scaled, scaled.Original),
		Width:     scaled.Original.X,
		Height:    scaled.Original.Y,
	}
	return result, nil
}

func largest(found []face.Face) *face.Face {
	var best *face.Face
	bestArea := -1
	for i := range found {
		size := found[i].Rectangle.Size()
		if area := size.X * size.Y; area > bestArea {
			best = &found[i]
			bestArea = area
		}
	}
	return best
}
