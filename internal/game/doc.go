// Package game holds the client's view of the table. The server is the
// sole authority over game state; this package stores the latest snapshot
// verbatim and derives only presentation-level facts from it, such as
// whose turn it is and which actions the local player may take.
package game
