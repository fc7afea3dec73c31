package sqlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/lodging/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the mapped sqlerr.Code for a given error.
//
// If err can be unwrapped into *sqlerr.Error or *pgconn.PgError its Code
// is returned, otherwise Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return MapCode(pgerr.Code)
	}
	return Other
}

// ConvertPgError converts a pgconn.PgError (raw Postgres error) into our custom sqlerr.Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		Detail:         src.Detail,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// detailKeyRegex matches the "Key (col[, col])=(value[, value])" prefix
// PostgreSQL puts in DETAIL for unique and foreign key violations.
var detailKeyRegex = regexp.MustCompile(`^Key \((.+?)\)=\((.*)\)`)

// uniqueSuffixRegex matches the "<table>_<column>_key" naming convention.
var uniqueSuffixRegex = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// parseDetailKey extracts the column list and value from a violation DETAIL.
func parseDetailKey(detail string) (string, string) {
	matches := detailKeyRegex.FindStringSubmatch(detail)
	if len(matches) != 3 {
		return "", ""
	}
	return strings.ReplaceAll(matches[1], " ", ""), matches[2]
}

// isStillReferenced reports whether a foreign key violation came from
// deleting a row that is still referenced, as opposed to inserting a row
// whose reference is missing.
func isStillReferenced(sqlErr *Error) bool {
	return strings.Contains(sqlErr.Detail, "is still referenced from table")
}

// referencedTable returns the table named by `from table "x"` or `in table "x"`.
func referencedTable(detail string) string {
	for _, marker := range []string{`from table "`, `in table "`} {
		if i := strings.Index(detail, marker); i >= 0 {
			rest := detail[i+len(marker):]
			if j := strings.Index(rest, `"`); j >= 0 {
				return rest[:j]
			}
		}
	}
	return ""
}

// deletedTable returns the table named by `update or delete on table "x"`.
func deletedTable(message string) string {
	const marker = `on table "`
	i := strings.Index(message, marker)
	if i < 0 {
		return ""
	}
	rest := message[i+len(marker):]
	if j := strings.Index(rest, `"`); j >= 0 {
		return rest[:j]
	}
	return ""
}

// extractColumnForForeignKey infers the referencing column from a
// "<table>_<column>_fkey" constraint name.
func extractColumnForForeignKey(tableName, constraintName string) string {
	if tableName == "" || !strings.HasPrefix(constraintName, tableName+"_") {
		return ""
	}
	rest := strings.TrimPrefix(constraintName, tableName+"_")
	if !strings.HasSuffix(rest, "_fkey") {
		return ""
	}
	return strings.TrimSuffix(rest, "_fkey")
}

// extractColumnForUniqueViolation infers the column list from a unique
// constraint name.
//
// It supports:
//
//  1. "unique_<table>_<column>"      e.g. unique_users_email -> "email"
//  2. "<table>_<columns>_(key|ukey)" e.g. place_amenities_place_id_amenity_id_key -> "place_id_amenity_id"
func extractColumnForUniqueViolation(tableName, constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		rest := strings.TrimPrefix(constraintName, "unique_")
		if tableName != "" && strings.HasPrefix(rest, tableName+"_") {
			return strings.TrimPrefix(rest, tableName+"_")
		}
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if tableName != "" && strings.HasPrefix(constraintName, tableName+"_") {
		rest := strings.TrimPrefix(constraintName, tableName+"_")
		for _, suffix := range []string{"_ukey", "_key"} {
			if strings.HasSuffix(rest, suffix) {
				return strings.TrimSuffix(rest, suffix)
			}
		}
	}

	matches := uniqueSuffixRegex.FindStringSubmatch(constraintName)
	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// getEntityName tries to infer an entity name from table/column data.
//
// Priority rules:
//  1. If column ends with "_id", use that base name. e.g. "host_id" -> "Host"
//  2. Otherwise use table name, singularized if it ends with "s".
//  3. Otherwise fallback to "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		switch {
		case strings.HasSuffix(entity, "ies") && len(entity) > 3:
			entity = entity[:len(entity)-3] + "y"
		case strings.HasSuffix(entity, "s") && len(entity) > 1:
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case into Title Case.
//
//	"first_name" -> "First Name"
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// HandleError converts a low-level database error into an errs.Error.
//
// Output:
//   - *errs.Error: returned unchanged
//   - pgconn.PgError: mapped by SQLSTATE (unique, foreign key, not null, check)
//   - pgx.ErrNoRows: errs.NotFound
//   - anything else: errs.StorageFailure
//
// The Kind on the returned error is left empty; repositories tag it.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)
		columns, value := parseDetailKey(sqlErr.Detail)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			if isStillReferenced(sqlErr) {
				// TableName is the referencing table here; the deleted
				// row's table only appears in the message.
				dependentTable := sqlErr.TableName
				if dependentTable == "" {
					dependentTable = referencedTable(sqlErr.Detail)
				}
				field := extractColumnForForeignKey(dependentTable, sqlErr.ConstraintName)
				if field == "" {
					field = columns
				}
				return errs.Wrap(errs.NewHasDependentsError(
					getEntityName(deletedTable(sqlErr.Message), ""), value,
					getEntityName(dependentTable, ""), field), sqlErr)
			}
			target := getEntityName(referencedTable(sqlErr.Detail), "")
			return errs.Wrap(errs.NewReferenceNotFoundError(
				getEntityName(sqlErr.TableName, ""), columns, value, target), sqlErr)

		case UniqueViolation:
			if columns == "" {
				columns = extractColumnForUniqueViolation(sqlErr.TableName, sqlErr.ConstraintName)
			}
			return errs.Wrap(errs.NewUniquenessViolationError(
				getEntityName(sqlErr.TableName, ""), columns, value), sqlErr)

		case NotNullViolation:
			field := strings.ToLower(sqlErr.ColumnName)
			return errs.Wrap(errs.NewValidationError(
				fmt.Sprintf("The %s is required", humanizeText(field)),
				[]errs.FieldError{{Field: field, Error: "is required"}},
			), sqlErr)

		case CheckViolation, StringTooLong, InvalidText:
			field := strings.ToLower(sqlErr.ColumnName)
			message := "One or more values do not meet required conditions"
			if field != "" {
				message = fmt.Sprintf("The %s value does not meet required conditions", humanizeText(field))
			}
			var fieldErrors []errs.FieldError
			if field != "" {
				fieldErrors = []errs.FieldError{{Field: field, Error: "is invalid"}}
			}
			return errs.Wrap(errs.NewValidationError(message, fieldErrors), sqlErr)

		default:
			return errs.NewStorageFailure(sqlErr)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.NewNotFoundError("record", ""), err).WithMessage("Resource not found")
	}

	return errs.NewStorageFailure(err)
}
