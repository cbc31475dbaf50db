package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isContention indica lock_timeout (55P03), deadlock (40P01) o fallo de serialización (40001):
// la operación puede reintentarse.
func isContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "55P03", "40P01", "40001":
		return true
	}
	return false
}

// filter arma cláusulas WHERE con parámetros posicionales.
type filter struct {
	conds []string
	args  []any
}

// add agrega una condición; "?" se reemplaza por el siguiente $n.
func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(f.args)), 1))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// page agrega LIMIT/OFFSET; limit <= 0 no limita.
func (f *filter) page(limit, offset int) string {
	var lim any
	if limit > 0 {
		lim = limit
	}
	f.args = append(f.args, lim, offset)
	n := len(f.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
