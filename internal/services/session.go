package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kubev2v/inkcore/internal/models"
	srvErrors "github.com/kubev2v/inkcore/pkg/errors"
	"github.com/kubev2v/inkcore/pkg/log"
	"github.com/kubev2v/inkcore/pkg/reaper"
	"github.com/kubev2v/inkcore/pkg/taskpool"
)

// SessionService tracks client sessions and forgets the ones that stay idle
// longer than the reaper's timeout.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	reaper   *reaper.Reaper
	pool     *taskpool.Pool
	expired  atomic.Uint64
	now      func() time.Time
}

func NewSessionService(pool *taskpool.Pool, opts ...reaper.Option) (*SessionService, error) {
	s := &SessionService{
		sessions: make(map[string]*models.Session),
		pool:     pool,
		now:      time.Now,
	}

	opts = append([]reaper.Option{reaper.WithLogger(log.FromZap(zap.S().Named("session_service")))}, opts...)
	r, err := reaper.New(pool, s.expire, opts...)
	if err != nil {
		return nil, err
	}
	s.reaper = r

	return s, nil
}

func (s *SessionService) Start(ctx context.Context) {
	s.reaper.Start(ctx)
}

func (s *SessionService) Stop() {
	s.reaper.Stop()
}

func (s *SessionService) Create() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
	}
	s.sessions[session.ID] = session
	s.reaper.Touch(session.ID)

	zap.S().Named("session_service").Debugw("session created", "id", session.ID)
	return *session
}

func (s *SessionService) Get(id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.sessions[id]
	if !found {
		return models.Session{}, srvErrors.NewSessionNotFoundError(id)
	}
	return *session, nil
}

// Touch marks the session as active, pushing its expiry back by a full
// timeout.
func (s *SessionService) Touch(id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, found := s.sessions[id]
	if !found {
		return models.Session{}, srvErrors.NewSessionNotFoundError(id)
	}
	session.LastSeen = s.now()
	s.reaper.Touch(id)
	return *session, nil
}

func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.sessions[id]; !found {
		return srvErrors.NewSessionNotFoundError(id)
	}
	delete(s.sessions, id)
	s.reaper.Remove(id)
	return nil
}

// List returns the sessions ordered by creation time.
func (s *SessionService) List() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, *session)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (s *SessionService) Status() models.Status {
	stats := s.pool.Stats()

	s.mu.Lock()
	sessions := len(s.sessions)
	s.mu.Unlock()

	return models.Status{
		Pool: models.PoolStatus{
			Workers:  stats.Workers,
			Queued:   stats.Queued,
			Active:   stats.Active,
			Pending:  stats.Pending,
			Stopping: stats.Stopping,
		},
		Reaper: models.ReaperStatus{
			Running:  s.reaper.IsRunning(),
			Sessions: sessions,
			Timeout:  s.reaper.Timeout(),
			Expired:  s.expired.Load(),
		},
	}
}

// expire runs on a pool worker. A session touched between its expiry and
// this call is tracked by the reaper again and is kept.
func (s *SessionService) expire(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reaper.Has(id) {
		return nil
	}
	if _, found := s.sessions[id]; !found {
		return nil
	}
	delete(s.sessions, id)
	s.expired.Add(1)

	zap.S().Named("session_service").Infow("session expired", "id", id)
	return nil
}
