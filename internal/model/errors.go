package model

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateClient = errors.New("client already exists")
	ErrInvalidTask     = errors.New("invalid task")
	ErrInvalidClient   = errors.New("invalid client name")
	ErrUnauthorized    = errors.New("not authorized")
)
