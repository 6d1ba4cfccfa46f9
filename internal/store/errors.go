package store

import "errors"

var (
	ErrNotFound   = errors.New("store: record not found")
	ErrConflict   = errors.New("store: unique constraint violated")
	ErrForeignKey = errors.New("store: referenced record does not exist")
)
