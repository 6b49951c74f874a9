package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

// Códigos SQLSTATE que vale la pena reintentar.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"08006": true, // connection_failure
}

// classify marca como transitorios los errores de conexión y de concurrencia.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if transientCodes[pgErr.Code] {
			return rowstore.Transient(err)
		}
		return err
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return rowstore.Transient(err)
	}
	return err
}
