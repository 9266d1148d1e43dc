package service

import "errors"

// Errors returned by the custody services. None of them carry the password or
// key that caused them.
var (
	ErrMalformedInput         = errors.New("malformed input")
	ErrInvalidKey             = errors.New("invalid private key")
	ErrInvalidKeyMaterial     = errors.New("invalid key material")
	ErrAlreadyEnrolled        = errors.New("user already enrolled")
	ErrStoreWrite             = errors.New("failed to persist record")
	ErrNotEnrolled            = errors.New("user not enrolled")
	ErrWrongPasswordOrCorrupt = errors.New("wrong password or corrupt record")
)
