// Package reconnect implements the retry policy for a lost connection:
// exponential backoff with optional jitter, attempt counting, and state
// reporting. It is decoupled from socket mechanics: the handler drives a
// connect function on a timer and knows nothing about transports.
package reconnect
