package errors

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned by the inventory store when the snapshot a
// write was computed from is no longer the latest one.
var ErrVersionConflict = errors.New("inventory version conflict")

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type ShortageDetail struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError rejects an order that would drive stock below zero.
type InsufficientStockError struct {
	Message   string
	Shortages []ShortageDetail
}

func (e *InsufficientStockError) Error() string {
	return e.Message
}

func NewInsufficientStockError(message string, shortages ...ShortageDetail) *InsufficientStockError {
	return &InsufficientStockError{
		Message:   message,
		Shortages: shortages,
	}
}

func IsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	var se *InsufficientStockError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
