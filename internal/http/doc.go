// Package http provides HTTP handlers and middleware for the portal API.
//
// The router exposes the following endpoints:
//   - POST /sessions: signs in. Body: {"email","secret"}. Response:
//     {"identity":{"id","name","email","role"}}. The portal tracks a single
//     active session; signing in replaces any previous one.
//   - GET /sessions/current: returns the signed-in identity or 401.
//   - DELETE /sessions/current: signs out. Returns 204 No Content.
//   - POST /registrations: creates an account and signs it in, exchanging the
//     same identity payload as /sessions.
//   - GET /providers: lists the provider directory.
//   - GET /slots?provider=&date=: lists bookable time slots.
//   - GET /bookings, POST /bookings, POST /bookings/{id}/cancel,
//     POST /bookings/{id}/payment: booking lifecycle endpoints exchanging the
//     `bookingDTO` payload defined in scheduling_handler.go. Listing defaults
//     to the signed-in principal's side of the appointment.
//   - GET /records?patient=, POST /records, PUT /records/{id},
//     DELETE /records/{id}, POST /records/{id}/unlock: medical record
//     endpoints exchanging the `recordDTO` payload defined in
//     records_handler.go. Descriptions stay blank with `locked` set until the
//     viewer presents the record's access secret to the unlock endpoint.
//
// Everything except the session and registration endpoints requires a
// signed-in identity. Request/response DTOs live alongside their respective
// handlers so tests and documentation share the same ground truth.
package http
