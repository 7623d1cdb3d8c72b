package v1

import (
	"github.com/kubev2v/inkcore/internal/models"
)

// NewSessionFromModel converts a models.Session to an API Session.
func NewSessionFromModel(s models.Session) Session {
	return Session{
		Id:        s.ID,
		CreatedAt: s.CreatedAt,
		LastSeen:  s.LastSeen,
	}
}

func NewSessionListFromModel(sessions []models.Session) SessionList {
	list := SessionList{
		Sessions: make([]Session, 0, len(sessions)),
		Total:    len(sessions),
	}
	for _, s := range sessions {
		list.Sessions = append(list.Sessions, NewSessionFromModel(s))
	}
	return list
}

func (s *Status) FromModel(m models.Status) {
	s.Pool = PoolStatus{
		Workers:  m.Pool.Workers,
		Queued:   m.Pool.Queued,
		Active:   m.Pool.Active,
		Pending:  m.Pool.Pending,
		Stopping: m.Pool.Stopping,
	}
	s.Reaper = ReaperStatus{
		Running:  m.Reaper.Running,
		Sessions: m.Reaper.Sessions,
		Timeout:  m.Reaper.Timeout.String(),
		Expired:  m.Reaper.Expired,
	}
}
