package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	models "github.com/Schera-ole/perfcounter/internal/model"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

// DBStorage implements the Repository interface on top of PostgreSQL.
type DBStorage struct {
	db *sql.DB
}

// NewDBStorage opens a pgx-backed connection pool. No connection is made until first use.
func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

// NewDBStorageWithDB wraps an existing *sql.DB.
func NewDBStorageWithDB(db *sql.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

// classify maps driver errors to the registry's sentinel errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return internalerrors.ErrServiceAlreadyRegistered
		case pgErr.Code == pgerrcode.CheckViolation:
			return fmt.Errorf("%w: %s", internalerrors.ErrInvalidBase, pgErr.Message)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return fmt.Errorf("%w: %v", internalerrors.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("%w: %v", internalerrors.ErrQueryExecution, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", internalerrors.ErrStorageUnavailable, err)
	}
	return err
}

func (storage *DBStorage) Lookup(ctx context.Context, service string) (symbols.Base, error) {
	var base symbols.Base
	query := "SELECT first_counter, first_help FROM perf_services WHERE service = $1"
	err := storage.db.QueryRowContext(ctx, query, service).Scan(&base.FirstCounter, &base.FirstHelp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return symbols.Base{}, internalerrors.ErrServiceNotRegistered
		}
		return symbols.Base{}, fmt.Errorf("error looking up service: %w", classify(err))
	}
	return base, nil
}

func (storage *DBStorage) Register(ctx context.Context, service string, base symbols.Base) error {
	if err := validate(service, base); err != nil {
		return err
	}
	query := "INSERT INTO perf_services (service, first_counter, first_help, created_at) VALUES ($1, $2, $3, NOW())"
	_, err := storage.db.ExecContext(ctx, query, service, base.FirstCounter, base.FirstHelp)
	if err != nil {
		return fmt.Errorf("error registering service: %w", classify(err))
	}
	return nil
}

func (storage *DBStorage) Unregister(ctx context.Context, service string) error {
	query := "DELETE FROM perf_services WHERE service = $1"
	res, err := storage.db.ExecContext(ctx, query, service)
	if err != nil {
		return fmt.Errorf("error unregistering service: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error unregistering service: %w", err)
	}
	if n == 0 {
		return internalerrors.ErrServiceNotRegistered
	}
	return nil
}

func (storage *DBStorage) List(ctx context.Context) ([]models.Registration, error) {
	query := "SELECT service, first_counter, first_help FROM perf_services ORDER BY service"
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving registrations: %w", classify(err))
	}
	defer rows.Close()

	var registrations []models.Registration
	for rows.Next() {
		var r models.Registration
		if err := rows.Scan(&r.Service, &r.FirstCounter, &r.FirstHelp); err != nil {
			return nil, fmt.Errorf("error scanning registration: %w", err)
		}
		registrations = append(registrations, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over registrations: %w", err)
	}
	return registrations, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", classify(err))
	}
	return nil
}
