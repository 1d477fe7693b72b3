package apperrors

import (
	"errors"
)

var (
	ErrShutdown = errors.New("shutdown error")

	ErrUserDoesNotExist    = errors.New("user does not exist")
	ErrUserIsInactive      = errors.New("user account is inactive")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrContextValueDoesNotExist = errors.New("context value does not exist")
	ErrContextValueInvalidType  = errors.New("invalid context value type")

	ErrMovementDoesNotExist = errors.New("stock movement does not exist")

	ErrUnknownRoutingKey = errors.New("unknown routing key")
)
