package models

import "time"

type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time
}
