// Package idgen issues opaque identifiers for exception-handling sessions
// and queued messages.
package idgen
