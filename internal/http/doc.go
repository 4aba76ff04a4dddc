// Package http provides the HTTP handlers and middleware for the room
// reservation API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204.
//   - GET /availability?date=YYYY-MM-DD: the room-by-slot availability matrix
//     for one date, resolved in the campus timezone.
//   - POST /reservations: commits a reservation for the caller. Body:
//     {"roomId","startAt","endAt","addToGoogleCalendar"}. Response: {"id"}
//     plus non-fatal warnings such as a failed calendar sync.
//   - POST /reservations/on-behalf: administrator-only variant carrying an
//     extra "userEmail" field identifying the owner.
//   - GET /reservations/my: the caller's reservations partitioned into
//     current, future, and past relative to the request instant.
//   - GET|DELETE /reservations/{id}: detail and cancellation, owner or
//     administrator only.
//   - GET /rooms, POST /rooms, GET|PUT|DELETE /rooms/{id}: room catalog
//     endpoints exchanging the roomDTO payload defined in room_handler.go.
//     Listing is open to any authenticated principal, mutations require an
//     administrator. GET /rooms/{id}/reservations lists a room's history
//     (administrator only).
//   - GET /users, POST /users, GET|PUT|DELETE /users/{id}: administrator
//     controlled account management exchanging the userDTO payload defined in
//     user_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
