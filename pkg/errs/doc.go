// Package errs defines the error shape returned by the portal API.
//
// Handlers return *HTTPError values and the endpoints layer serializes
// them as JSON:
//
//	{"code":"NOT_FOUND","message":"Conference not found","status":404,"override":false,"errors":null,"action":null}
//
// Field-level validation failures are carried in Errors. DebugDetail is only
// filled in when the server runs with DEBUG=true.
package errs
