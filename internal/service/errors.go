package service

import (
	"errors"
	"fmt"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

// storageError passes domain errors through and marks anything else as a
// storage failure.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStorageUnavailable),
		domain.IsValidation(err):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
