// Package server provides a Gin-backed upstream for exercising HTTP
// clients by hand or in tests. It serves HTTP/1.1 and h2c on one port.
//
// # Routes
//
//   - /echo/*path: returns the request as JSON; ?status=N sets the status
//   - /status/:code: empty response with the given status
//   - /flaky/:key: fails the first ?fail=N requests per key with ?status
//   - /delay/:duration: answers after the given duration
//   - /redirect/*path: 302 to /echo/*path
//   - /basic-auth/:user/:password: 200 only for matching credentials
//   - /bearer: 200 when a bearer token is present
//   - /health: liveness
//
// Every response carries X-Request-Id, taken from the request when present.
package server
