package sqlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/errs"
)

// Code is a coarse classification of SQLSTATE values.
type Code string

const (
	Other               Code = "other"
	NotNullViolation    Code = "not_null_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	UniqueViolation     Code = "unique_violation"
	CheckViolation      Code = "check_violation"
)

// MapCode classifies a SQLSTATE.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	default:
		return Other
	}
}

var keySuffix = regexp.MustCompile(`^(.+)_(?:key|ukey|idx)$`)

// Column guesses the offending column from a Postgres error. Postgres fills
// ColumnName only for not-null violations, so unique violations fall back to
// the constraint name (<table>_<column>_key) and then the detail text.
func Column(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := keySuffix.FindStringSubmatch(pgErr.ConstraintName); m != nil {
		col := strings.TrimPrefix(m[1], pgErr.TableName+"_")
		if col != m[1] || pgErr.TableName == "" {
			return col
		}
	}
	if i := strings.Index(pgErr.Detail, "Key ("); i >= 0 {
		rest := pgErr.Detail[i+len("Key ("):]
		if j := strings.Index(rest, ")"); j >= 0 {
			return strings.ReplaceAll(rest[:j], ", ", "_")
		}
	}
	return ""
}

func entityName(table string) string {
	return strings.TrimPrefix(table, "portal_")
}

func humanize(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

func errorCode(table, column, action string) string {
	parts := []string{}
	if e := entityName(table); e != "" {
		parts = append(parts, e)
	} else {
		parts = append(parts, "record")
	}
	if column != "" {
		parts = append(parts, column)
	}
	parts = append(parts, action)
	return strings.ToUpper(strings.Join(parts, "_"))
}

// HandleError converts a database error into an *errs.HTTPError.
// HTTPErrors pass through unchanged.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errs.As(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		column := Column(pgErr)
		entity := humanize(entityName(pgErr.TableName))
		if entity == "" {
			entity = "Record"
		}

		switch MapCode(pgErr.Code) {
		case UniqueViolation:
			code := errorCode(pgErr.TableName, column, "ALREADY_EXISTS")
			msg := fmt.Sprintf("%s with this %s already exists", entity, strings.ToLower(humanize(orDefault(column, "identifier"))))
			return errs.NewConflictError(msg, true, &code)
		case ForeignKeyViolation:
			code := errorCode(pgErr.TableName, column, "NOT_FOUND")
			ref := humanize(strings.TrimSuffix(column, "_id"))
			if ref == "" {
				ref = "Record"
			}
			return errs.NewNotFoundError(fmt.Sprintf("Referenced %s does not exist", strings.ToLower(ref)), true, &code)
		case NotNullViolation:
			code := errorCode(pgErr.TableName, column, "REQUIRED")
			fields := []errs.FieldError{{Field: column, Error: "is required"}}
			return errs.NewBadRequestError(fmt.Sprintf("%s is required", humanize(orDefault(column, "field"))), true, &code, fields, nil)
		case CheckViolation:
			code := errorCode(pgErr.TableName, column, "INVALID")
			return errs.NewBadRequestError(fmt.Sprintf("%s value does not meet required conditions", humanize(orDefault(column, "field"))), true, &code, nil, nil)
		default:
			return errs.NewInternalServerError().WithDebug(pgErr.Message)
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, pgx.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError().WithDebug(err.Error())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
