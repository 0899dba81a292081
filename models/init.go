package models

import (
	"facetrack/db"
)

func Init() error {
	return db.Instance.AutoMigrate(&TrackingSession{}, &FrameOutcome{})
}
