// Package services implements the business logic layer of the inkd daemon.
//
// Services sit between the HTTP handlers and the concurrency packages under
// pkg/. They own their state behind a mutex and hand background work to the
// shared task pool.
//
// # Service Dependency Graph
//
//	Handlers (HTTP endpoints)
//	    │
//	    ▼
//	SessionService ──► Reaper ──► Timer Wheel
//	    │                 │
//	    │                 ├──────► Managed Worker (ticks the wheel)
//	    │                 │
//	    └─────────────────┴──────► Task Pool (expiry callbacks, Status)
//
// # SessionService
//
// SessionService hands out session ids (random UUIDs) and keeps each session
// alive for as long as the client touches it at least once per timeout.
//
// Session lifecycle:
//
//	         Create()            Touch()
//	  ──────────────► ┌────────┐ ◄────────┐
//	                  │ Active │ ─────────┘
//	                  └────────┘
//	                   │      │
//	         Delete()  │      │  idle for the timeout
//	                   ▼      ▼
//	                  ┌────────┐
//	                  │  Gone  │   Get/Touch/Delete return SessionNotFoundError
//	                  └────────┘
//
// Key behaviors:
//   - The timeout is (slots - 1) * tick of the reaper's wheel
//   - Expired sessions are removed by a task on the pool, not by the ticking worker
//   - A Touch racing with an expiry wins: the session is kept
//   - Status reports pool load alongside session counts and the number of expiries
//
// Usage:
//
//	pool := taskpool.New(4)
//	sessions, err := services.NewSessionService(pool, reaper.WithTick(time.Second))
//	sessions.Start(ctx)
//	defer sessions.Stop()
//
//	s := sessions.Create()
//	_, err = sessions.Touch(s.ID)
//
// # Thread Safety
//
// All SessionService methods are safe for concurrent use. The service lock is
// always taken before the reaper's.
package services
