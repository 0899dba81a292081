package faces

import (
	"errors"
	"facetrack/stability"
	"image"
)

var (
	ErrNoFace       = errors.New("no face found")
	ErrNotFullShape = errors.New("landmark groups need a 68 point shape")
)

// Detector finds the most prominent face in a JPEG image
type Detector interface {
	Detect(jpegData []byte) (Detection, error)
}

type Detection struct {
	Box       image.Rectangle
	Landmarks stability.Frame // 2D, in source image pixels
	Width     int
	Height    int
}

// 68 point (iBUG 300-W) landmark index ranges, end exclusive
const (
	FullShapePoints = 68

	jawStart, jawEnd                   = 0, 17
	leftEyeBrowStart, leftEyeBrowEnd   = 17, 22
	rightEyeBrowStart, rightEyeBrowEnd = 22, 27
	noseStart, noseEnd                 = 27, 36
	leftEyeStart, leftEyeEnd           = 36, 42
	rightEyeStart, rightEyeEnd         = 42, 48
	mouthStart, mouthEnd               = 48, 68
)

func JawOutline(f stability.Frame) (stability.Frame, error) {
	return group(f, jawStart, jawEnd)
}

func LeftEyeBrow(f stability.Frame) (stability.Frame, error) {
	return group(f, leftEyeBrowStart, leftEyeBrowEnd)
}

func RightEyeBrow(f stability.Frame) (stability.Frame, error) {
	return group(f, rightEyeBrowStart, rightEyeBrowEnd)
}

func Nose(f stability.Frame) (stability.Frame, error) {
	return group(f, noseStart, noseEnd)
}

func LeftEye(f stability.Frame) (stability.Frame, error) {
	return group(f, leftEyeStart, leftEyeEnd)
}

func RightEye(f stability.Frame) (stability.Frame, error) {
	return group(f, rightEyeStart, rightEyeEnd)
}

func Mouth(f stability.Frame) (stability.Frame, error) {
	return group(f, mouthStart, mouthEnd)
}

// Groups returns all named landmark groups of a 68 point frame
func Groups(f stability.Frame) (map[string]stability.Frame, error) {
	if len(f) != FullShapePoints {
		return nil, ErrNotFullShape
	}
	return map[string]stability.Frame{
		"jaw_outline":    f[jawStart:jawEnd],
		"left_eye_brow":  f[leftEyeBrowStart:leftEyeBrowEnd],
		"right_eye_brow": f[rightEyeBrowStart:rightEyeBrowEnd],
		"nose":           f[noseStart:noseEnd],
		"left_eye":       f[leftEyeStart:leftEyeEnd],
		"right_eye":      f[rightEyeStart:rightEyeEnd],
		"mouth":          f[mouthStart:mouthEnd],
	}, nil
}

func group(f stability.Frame, start, end int) (stability.Frame, error) {
	if len(f) != FullShapePoints {
		return nil, ErrNotFullShape
	}
	return f[start:end], nil
}

// ResizeFrame scales 2D landmarks detected on an image of size from onto an image of size to.
// Extra coordinates (e.g. z) are left untouched.
func ResizeFrame(f stability.Frame, from, to image.Point) stability.Frame {
	if from.X == 0 || from.Y == 0 {
		return f
	}
	sx := float64(to.X) / float64(from.X)
	sy := float64(to.Y) / float64(from.Y)
	out := make(stability.Frame, len(f))
	for i, p := range f {
		q := append(stability.Point(nil), p...)
		if len(q) > 0 {
			q[0] *= sx
		}
		if len(q) > 1 {
			q[1] *= sy
		}
		out[i] = q
	}
	return out
}

func resizeRect(r image.Rectangle, from, to image.Point) image.Rectangle {
	if from.X == 0 || from.Y == 0 || from == to {
		return r
	}
	scale := func(v, num, den int) int {
		return v * num / den
	}
	return image.Rect(
		scale(r.Min.X, to.X, from.X), scale(r.Min.Y, to.Y, from.Y),
		scale(r.Max.X, to.X, from.X), scale(r.Max.Y, to.Y, from.Y),
	)
}

func shapesToFrame(shapes []image.Point) stability.Frame {
	frame := make(stability.Frame, len(shapes))
	for i, p := range shapes {
		frame[i] = stability.Point{float64(p.X), float64(p.Y)}
	}
	return frame
}
