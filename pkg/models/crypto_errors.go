package models

import "errors"

// Crypto error taxonomy.
var (
	ErrInvalidKeyLength      = errors.New("cryptostream: invalid key length")
	ErrMacVerificationFailed = errors.New("cryptostream: mac verification failed")
)
