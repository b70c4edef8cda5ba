package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrUnauthorizedToken  = errors.New("unauthorized webhook token")
	ErrMissingChallenge   = errors.New("missing hub challenge")
	ErrInvalidEvent       = errors.New("invalid webhook event")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingCredentials = errors.New("user has no platform credentials")
	ErrUserSuspended      = errors.New("user is suspended")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrProcessingFailed   = errors.New("activity processing failed")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrDatabaseDelete     = errors.New("database delete error")
	ErrRecordNotFound     = errors.New("record not found")
	ErrDuplicateRecord    = errors.New("duplicate record")
)
