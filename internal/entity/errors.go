package entity

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidState = errors.New("invalid task state")
	ErrTaskExists   = errors.New("task already exists")
)
