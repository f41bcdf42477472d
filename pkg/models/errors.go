package models

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrAdminNotFound    = errors.New("admin not found")
	ErrCategoryNotFound = errors.New("category not found")

	ErrSessionNotPending = errors.New("checkout session already completed")
)
