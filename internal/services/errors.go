package services

import (
	"errors"
	"fmt"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/repository"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyProcessed = errors.New("request already processed")
	ErrUnavailable      = errors.New("service unavailable")
)

// fromRepo traduit les erreurs du repository en erreurs de service
func fromRepo(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func isPrecondition(err error) bool {
	return errors.Is(err, database.ErrPreconditionFailed)
}
