package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrVendorNotFound  = errors.New("vendor not found")
	ErrCountryNotFound = errors.New("country not found")
	ErrMatchNotFound   = errors.New("match not found")
)
