// Package repository stores the name/help base ("First Counter" / "First Help") that the
// host assigned to each registered counter provider.
package repository

import (
	"context"
	"fmt"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	models "github.com/Schera-ole/perfcounter/internal/model"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

// Repository is the registry a provider consults when it is opened.
type Repository interface {
	Lookup(ctx context.Context, service string) (symbols.Base, error)
	Register(ctx context.Context, service string, base symbols.Base) error
	Unregister(ctx context.Context, service string) error
	List(ctx context.Context) ([]models.Registration, error)
	Ping(ctx context.Context) error
	Close() error
}

func validate(service string, base symbols.Base) error {
	if service == "" {
		return fmt.Errorf("%w: empty service name", internalerrors.ErrInvalidBase)
	}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("%w: %v", internalerrors.ErrInvalidBase, err)
	}
	return nil
}
