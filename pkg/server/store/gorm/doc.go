// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Most stores embed CRUD, a generic implementation of store.CRUDStore for
// models embedding model.Base, and add the queries specific to their table.
// Soft deletes go through the is_deleted column. Writes made with a context
// carrying a model.Editor are stamped with created_by and updated_by.
package gorm
