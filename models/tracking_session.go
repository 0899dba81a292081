package models

import (
	"facetrack/db"
	"facetrack/stability"
	"math"
	"time"

	"gorm.io/gorm"
)

type TrackingSession struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt  int64
	UpdatedAt  int64
	Threshold  float64
	Dimensions uint8
	Frames     uint64 `gorm:"not null;default:0"`
	Moves      uint64 `gorm:"not null;default:0"`
	Mismatches uint64 `gorm:"not null;default:0"`
	ClosedAt   int64  `gorm:"index:tracking_session_closed"`
}

type FrameOutcome struct {
	ID           uint64          `gorm:"primaryKey"`
	SessionID    string          `gorm:"type:varchar(36);index:frame_outcome_session_seq,priority:1"`
	Session      TrackingSession `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Seq          uint64          `gorm:"index:frame_outcome_session_seq,priority:2"`
	CreatedAt    int64
	Kind         string   `gorm:"type:varchar(16)"`
	MeanDistance *float64 // nil for the baseline frame and for non-finite values
}

func NewTrackingSession(id string, threshold float64, dimensions int) (ts TrackingSession, err error) {
	ts = TrackingSession{
		ID:         id,
		Threshold:  threshold,
		Dimensions: uint8(dimensions),
	}
	err = db.Instance.Create(&ts).Error
	return
}

func TrackingSessionByID(id string) (ts TrackingSession, err error) {
	err = db.Instance.
		Where("id = ?", id).
		First(&ts).
		Error
	return
}

// RecordOutcome bumps the session counters and, if store is set, saves the outcome itself
func RecordOutcome(sessionID string, seq uint64, outcome stability.Outcome, store bool) error {
	movedInc := 0
	if outcome.Moved() {
		movedInc = 1
	}
	return db.Instance.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&TrackingSession{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"frames":     gorm.Expr("frames + 1"),
				"moves":      gorm.Expr("moves + ?", movedInc),
				"updated_at": time.Now().Unix(),
			}).Error
		if err != nil || !store {
			return err
		}
		fo := FrameOutcome{
			SessionID: sessionID,
			Seq:       seq,
			Kind:      outcome.Kind.String(),
		}
		if d := outcome.MeanDistance; outcome.Kind != stability.NoBaseline && !math.IsNaN(d) && !math.IsInf(d, 0) {
			fo.MeanDistance = &d
		}
		return tx.Create(&fo).Error
	})
}

func RecordMismatch(sessionID string) error {
	return db.Instance.Model(&TrackingSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"mismatches": gorm.Expr("mismatches + 1"),
			"updated_at": time.Now().Unix(),
		}).Error
}

func CloseTrackingSession(sessionID string) error {
	return db.Instance.Model(&TrackingSession{}).
		Where("id = ? AND closed_at = 0", sessionID).
		Update("closed_at", time.Now().Unix()).Error
}

// FrameOutcomesFor returns the latest outcomes of a session, oldest first
func FrameOutcomesFor(sessionID string, limit int) (result []FrameOutcome, err error) {
	err = db.Instance.
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Limit(limit).
		Find(&result).
		Error
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return
}
