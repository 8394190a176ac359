// Package lifecycle provides retry primitives for long-running workers.
//
// The package currently offers exponential backoff with jitter, used to
// pace retries against relays and other remote services.
//
// # Usage
//
// Create a backoff and sleep between attempts:
//
//	bo := lifecycle.NewBackoff(500*time.Millisecond, 5*time.Second)
//
//	for attempt := 1; attempt <= maxAttempts; attempt++ {
//	    if err := deliver(); err == nil {
//	        return nil
//	    }
//	    bo.Sleep()
//	}
//
// Call [Backoff.Reset] after a success to return to the initial delay.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
