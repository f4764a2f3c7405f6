// Package authenticator defines the login methods of the portal.
//
// Admins sign in with email and password, see
// [github.com/confportal/conf-portal-api/pkg/authenticator/authn_password].
// App users exchange a Firebase ID token, see
// [github.com/confportal/conf-portal-api/pkg/authenticator/authn_firebase].
//
// Both implement the Authenticator interface and are looked up by login
// method through a Registry:
//
//	registry := authenticator.NewRegistry().
//	    Install(authn_password.New(users, hasher), true).
//	    Install(authn_firebase.New(users, cfg), projectID != "")
//
// The firebase authenticator is only enabled when FIREBASE_PROJECT_ID is set.
package authenticator
