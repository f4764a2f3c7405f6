// Package sqlerr maps Postgres driver errors onto errs.HTTPError values.
package sqlerr
