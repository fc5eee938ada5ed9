package api

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBadRequest       = errors.New("bad request")
	ErrRateLimited      = errors.New("rate limited")
	ErrNotFound         = errors.New("not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrEmptyToken       = errors.New("empty access token")
	ErrPoolStopped      = errors.New("worker pool stopped")
)
