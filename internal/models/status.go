package models

import "time"

type PoolStatus struct {
	Workers  int
	Queued   int
	Active   int
	Pending  int
	Stopping bool
}

type ReaperStatus struct {
	Running  bool
	Sessions int
	Timeout  time.Duration
	Expired  uint64
}

type Status struct {
	Pool   PoolStatus
	Reaper ReaperStatus
}
