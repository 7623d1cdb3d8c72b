// Package handlers implements the HTTP API layer of the inkd daemon.
//
// Handlers delegate to the services layer and only deal with parameter
// parsing, error mapping and model-to-API conversion.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - Parameter parsing                                            │
//	│  - Error mapping to HTTP status codes                           │
//	│  - Model-to-API conversion (api/v1)                             │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      SessionService                             │
//	└─────────────────────────────────────────────────────────────────┘
//
// Routes are mounted with:
//
//	handlers.RegisterHandlers(router, handlers.New(sessionSrv))
//
// # API Endpoints
//
//	┌────────┬────────────────┬─────────────────────────────────────────────┐
//	│ Method │ Endpoint       │ Description                                 │
//	├────────┼────────────────┼─────────────────────────────────────────────┤
//	│ GET    │ /status        │ Task pool load and reaper counters          │
//	│ GET    │ /sessions      │ List live sessions                          │
//	│ POST   │ /sessions      │ Create a session (201, Location header)     │
//	│ GET    │ /sessions/{id} │ Get a session without refreshing it         │
//	│ PUT    │ /sessions/{id} │ Refresh a session's expiry                  │
//	│ DELETE │ /sessions/{id} │ Close a session (204)                       │
//	└────────┴────────────────┴─────────────────────────────────────────────┘
//
// # Error Mapping
//
//	┌─────────────────────────┬─────────────┐
//	│ Service error           │ HTTP status │
//	├─────────────────────────┼─────────────┤
//	│ {id} is not a UUID      │ 400         │
//	│ SessionNotFoundError    │ 404         │
//	│ anything else           │ 500         │
//	└─────────────────────────┴─────────────┘
//
// Error bodies are {"error": "<message>"}. Internal errors are logged and
// their message is not returned to the client.
package handlers
