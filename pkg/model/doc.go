// Package model defines the database models for the conference portal.
//
// Every model maps one-to-one to a table created by the migrations under
// db/migrations. Most models embed Base, which carries the UUID primary key,
// the audit columns and the soft-delete flag shared by all portal tables.
//
// # Core Models
//
//   - User, UserProfile, UserThirdPartyAuth: portal accounts and their
//     Firebase identities
//   - Role, Resource, Verb, Permission: RBAC, where a permission is a
//     (resource, verb) pair with the code "resource:verb"
//   - AuthDevice, RefreshToken, PasswordResetToken: session state
//   - Conference, Workshop, EventSchedule, Instructor, Location: event metadata
//   - Faq, FaqCategory, Feedback, Testimony: support content
//   - FcmDevice, Notification, NotificationHistory: push notifications
//   - File, FileAssociation: uploaded objects stored in S3
//   - Log: the admin operation journal
package model
