package domain

import (
	"context"
	"errors"
)

var (
	ErrInsurerNotFound = errors.New("insurer not found")
	ErrInsurerInactive = errors.New("insurer is inactive")
)

type Service interface {
	// GetActiveByCode resolves an insurer for claim submission. Returns
	// ErrInsurerNotFound or ErrInsurerInactive when the code cannot be used.
	GetActiveByCode(ctx context.Context, code string) (*Insurer, error)
	GetByCode(ctx context.Context, code string) (*Insurer, error)
	ListActive(ctx context.Context) ([]*Insurer, error)
}
