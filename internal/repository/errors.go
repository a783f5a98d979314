package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnavailable      = errors.New("store unavailable")
	ErrNoSettledPayment = errors.New("no settled payment")
)
