package database

import "errors"

var (
	// ErrNotReady indicates the database connection has not been established.
	ErrNotReady = errors.New("database not ready")
	// ErrUnknownDriver indicates a driver other than postgres or sqlite was configured.
	ErrUnknownDriver = errors.New("unknown database driver")
)
