// Package protocol defines the wire protocol spoken with the game server.
//
// Every frame is a JSON object {type, data, token?}. The package provides:
//   - Typed message variants for each inbound and outbound frame type
//   - Parse, which validates raw frames strictly before they reach
//     application logic (malformed frames yield an error, never a partial
//     message)
//   - Serialize, the structural inverse of Parse
//   - Constructors for the frames the client sends
package protocol
