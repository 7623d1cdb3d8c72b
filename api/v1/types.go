package v1

import "time"

type Session struct {
	Id        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

type SessionList struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
}

type PoolStatus struct {
	Workers  int  `json:"workers"`
	Queued   int  `json:"queued"`
	Active   int  `json:"active"`
	Pending  int  `json:"pending"`
	Stopping bool `json:"stopping"`
}

type ReaperStatus struct {
	Running  bool   `json:"running"`
	Sessions int    `json:"sessions"`
	Timeout  string `json:"timeout"`
	Expired  uint64 `json:"expired"`
}

type Status struct {
	Pool   PoolStatus   `json:"pool"`
	Reaper ReaperStatus `json:"reaper"`
}

type Error struct {
	Error string `json:"error"`
}
