// Package tracking keeps independent stability filters, one per tracking
// session, so several faces or clients can be tracked at the same time.
package tracking

import (
	"context"
	"errors"
	"facetrack/stability"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	log "github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("tracking session not found")

type Session struct {
	ID      string
	Filter  *stability.Filter
	Created time.Time

	mutex    sync.Mutex
	lastSeen time.Time
	seq      uint64
}

// Result is an evaluated frame together with its position in the session
type Result struct {
	Seq     uint64
	Outcome stability.Outcome
}

func (s *Session) LastSeen() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastSeen
}

// Frames returns the number of frames accepted so far
func (s *Session) Frames() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.seq
}

func (s *Session) evaluate(frame stability.Frame, now time.Time) (Result, error) {
	// Held across Evaluate so sequence numbers follow evaluation order
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastSeen = now
	outcome, err := s.Filter.Evaluate(frame)
	if err != nil {
		return Result{}, err
	}
	s.seq++
	return Result{Seq: s.seq, Outcome: outcome}, nil
}

func (s *Session) touch(now time.Time) {
	s.mutex.Lock()
	s.lastSeen = now
	s.mutex.Unlock()
}

type Registry struct {
	sessions    cmap.ConcurrentMap[string, *Session]
	idleTimeout time.Duration
	now         func() time.Time
	// OnRemove, if set, is called for sessions dropped by Remove or Cleanup
	OnRemove func(*Session)
}

// NewRegistry returns an empty registry. Sessions not used for idleTimeout are
// dropped by Cleanup; a zero timeout keeps sessions until removed.
func NewRegistry(idleTimeout time.Duration) *Registry {
	return &Registry{
		sessions:    cmap.New[*Session](),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func (r *Registry) Create(threshold float64, dimensions int) (*Session, error) {
	filter, err := stability.Configure(threshold, dimensions)
	if err != nil {
		return nil, err
	}
	now := r.now()
	s := &Session{
		ID:       uuid.NewString(),
		Filter:   filter,
		Created:  now,
		lastSeen: now,
	}
	r.sessions.Set(s.ID, s)
	log.WithFields(log.Fields{"session": s.ID, "threshold": threshold, "dimensions": dimensions}).Debug("Tracking session created")
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Evaluate(id string, frame stability.Frame) (Result, error) {
	s, err := r.Get(id)
	if err != nil {
		return Result{}, err
	}
	return s.evaluate(frame, r.now())
}

// Reset drops the session's baseline so the next frame starts over
func (r *Registry) Reset(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.Filter.Reset()
	s.touch(r.now())
	return nil
}

func (r *Registry) Remove(id string) bool {
	s, ok := r.sessions.Pop(id)
	if !ok {
		return false
	}
	if r.OnRemove != nil {
		r.OnRemove(s)
	}
	return true
}

func (r *Registry) Len() int {
	return r.sessions.Count()
}

// Cleanup removes sessions idle for longer than the idle timeout and returns their IDs
func (r *Registry) Cleanup(now time.Time) (removed []string) {
	if r.idleTimeout <= 0 {
		return nil
	}
	for item := range r.sessions.IterBuffered() {
		if now.Sub(item.Val.LastSeen()) <= r.idleTimeout {
			continue
		}
		// Re-check under the shard lock, the session may have been used meanwhile
		popped := r.sessions.RemoveCb(item.Key, func(key string, s *Session, exists bool) bool {
			return exists && now.Sub(s.LastSeen()) > r.idleTimeout
		})
		if !popped {
			continue
		}
		log.Printf("Tracking session %s abandoned after %v", item.Key, now.Sub(item.Val.LastSeen()).Round(time.Second))
		if r.OnRemove != nil {
			r.OnRemove(item.Val)
		}
		removed = append(removed, item.Key)
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Cleanup(now)
		}
	}
}
