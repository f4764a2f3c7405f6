// Package store provides storage abstractions for the portal server.
//
// This package defines interfaces for database operations, allowing the
// endpoints to be decoupled from the specific database implementation.
// The gorm subpackage implements them against Postgres, and the endpoint
// tests replace them with testify mocks.
//
// # Available Stores
//
//   - CRUDStore[T]: paginated listing, create, update, soft delete and
//     restore for any table embedding model.Base
//   - UsersStore, PasswordResetStore: portal accounts and admin grants
//   - RolesStore, PermissionsStore, ResourcesStore, VerbsStore: RBAC admin
//   - ConferenceStore, EventScheduleStore, WorkshopStore, RegistrationStore,
//     FaqStore: event metadata and support content
//   - DevicesStore, NotificationStore: FCM devices and delivery history
//   - FileStore: uploaded object metadata
//   - HealthStore: connectivity checks
//
// # Usage
//
//	users := gorm.NewUsersStore(db)
//	user, err := users.GetByEmail(ctx, "admin@example.com")
//	if err != nil {
//	    if errors.Is(err, store.ErrNotFound) {
//	        // Handle not found
//	    }
//	}
package store
