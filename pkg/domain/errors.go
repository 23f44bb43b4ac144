package domain

import (
	"errors"
	"fmt"
)

var ErrAuthNotImplemented = errors.New("authentication type is not implemented")

type notFoundError struct {
	EntityType string
	Key        string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.EntityType, e.Key)
}

func NewNotFoundError(entityType string, key string) error {
	return &notFoundError{
		EntityType: entityType,
		Key:        key,
	}
}

func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFoundError *notFoundError
	ok := errors.As(err, &notFoundError)
	return ok
}
