// Package token issues and verifies the credentials handed to portal clients.
//
// Access tokens are HS256 JWTs with an audience per surface:
// "<APP_NAME>-admin" for the admin console and "<APP_NAME>-app" for the
// mobile app. Refresh tokens are opaque random strings stored only as a
// salted SHA-512 hash and rotated on every use; presenting an already
// rotated token revokes its whole family.
//
// Revoked tokens that are still within their lifetime are kept in a Redis
// blacklist keyed by the SHA-256 of the raw token.
package token
