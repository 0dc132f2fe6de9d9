// Package postgres implements the store interfaces over pgx with JSONB
// documents, mirroring the document shapes the services work with.
package postgres

import (
	"errors"

	"github.com/jackc/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
