package service

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNotAvailable  = errors.New("product not available")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrProductPriceInvalid  = errors.New("product price invalid")
	ErrPrebookTermsMissing  = errors.New("product has no prebook terms")
	ErrCloseoutTermsMissing = errors.New("product has no closeout terms")
	ErrInvalidCartItem      = errors.New("invalid cart item")
	ErrInvalidChannel       = errors.New("invalid cart channel")
	ErrCloseoutListNotFound = errors.New("closeout list not found")
	ErrInvalidSession       = errors.New("invalid session")
	ErrCompanyRequired      = errors.New("company id required")
	ErrQueueUnavailable     = errors.New("queue unavailable")
)
