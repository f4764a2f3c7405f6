// Package identity carries the authenticated caller of a request.
//
// The token package parses and validates raw access tokens. This package
// builds on a parsed token to describe who is calling and from where:
//   - Token claims (user id, email, family id, roles, scope, timestamps)
//   - Request context (remote IP, user agent)
//   - Effective permissions, once the permission middleware resolved them
//
// # Basic Usage
//
//	id := identity.FromClaims(claims, token.KindAdmin, raw)
//	id.WithRemoteIP(clientIP).WithUserAgent(r.UserAgent())
//
//	ctx = identity.Set(ctx, id)
//
//	id, ok := identity.Get(ctx)
package identity
