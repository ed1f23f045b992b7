package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgresFault is the server side of a failed postgres statement.
type PostgresFault struct {
	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

// Report breaks an error down for the request log.
type Report struct {
	Message  string
	Code     Code
	Causes   []string
	Fields   FieldErrors
	Postgres *PostgresFault
}

// Diagnose walks err and collects its code, cause chain, rejected form fields
// and, when a database driver error is underneath, the postgres fault.
func Diagnose(err error) Report {
	if err == nil {
		return Report{}
	}
	r := Report{Message: err.Error(), Fields: FieldsOf(err), Postgres: postgresFault(err)}
	if typed := As(err); typed != nil {
		r.Code = typed.Code()
	}
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		r.Causes = append(r.Causes, fmt.Sprintf("%T: %v", cause, cause))
	}
	return r
}

// LogFields flattens r into structured log fields.
func (r Report) LogFields() map[string]any {
	fields := map[string]any{
		"error":       r.Message,
		"error_code":  r.Code,
		"error_chain": r.Causes,
	}
	if len(r.Fields) > 0 {
		rejected := make([]string, 0, len(r.Fields))
		for name := range r.Fields {
			rejected = append(rejected, name)
		}
		fields["rejected_fields"] = rejected
	}
	if pg := r.Postgres; pg != nil {
		fields["pg_code"] = pg.SQLState
		fields["pg_constraint"] = pg.Constraint
		fields["pg_table"] = pg.Table
		fields["pg_column"] = pg.Column
		fields["pg_detail"] = pg.Detail
		fields["pg_message"] = pg.Message
	}
	return fields
}

func postgresFault(err error) *PostgresFault {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PostgresFault{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PostgresFault{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
