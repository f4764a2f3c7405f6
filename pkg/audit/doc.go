// Package audit records admin operations in the portal_log journal.
//
// Every admin mutation, login and logout produces an Event. A Recorder
// writes the event as a structured log line and persists it as a
// portal_log row, including the fields that changed between the old and
// new versions of the record.
//
// # Usage
//
//	rec := audit.NewRecorder(audit.NewStoreWithDB(db), logger)
//	rec.Record(ctx, audit.ActorFrom(id), audit.Updated("content:faq", faq.ID, old, faq))
package audit
