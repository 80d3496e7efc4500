package repository

import (
	"errors"
	"fmt"
)

const (
	OrderResource   = "order"
	ClientResource  = "client"
	ProductResource = "product"
)

// ErrDuplicateKey is returned when a write violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrReferenced is returned when a write breaks a foreign key, such as
// deleting a client that orders still point at.
var ErrReferenced = errors.New("referenced by other records")

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	Key      string
	Value    string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %s not found", e.Resource, e.Key, e.Value)
}

// IsNotFound reports whether err is a NotFoundError for the given resource.
// An empty resource matches any NotFoundError.
func IsNotFound(err error, resource string) bool {
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		return false
	}

	return resource == "" || notFoundErr.Resource == resource
}
