// Package session owns the client's durable identity credential: the
// {token, player id, expiry} triple used to authenticate outbound actions.
//
// The credential lives in a small key/value store on disk. Absence or a
// parse failure of any one entry invalidates the whole session, as does an
// expiry in the past. The session package performs no network access.
package session
