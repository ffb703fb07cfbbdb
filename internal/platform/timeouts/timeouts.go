// Package timeouts defines shared timeout constants used by the admin
// processes so handler, store, and server limits stay in one place.
package timeouts

import "time"

// StoreRequest caps a single store round trip issued by an HTTP handler.
const StoreRequest = 3 * time.Second

// Introspect caps token introspection calls made by the auth middleware.
const Introspect = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
