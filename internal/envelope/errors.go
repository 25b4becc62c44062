package envelope

import (
	"errors"
	"fmt"
)

// Error kinds returned by Share and Retrieve. Match them with errors.Is.
// Only ErrInput is ever wrapped with extra detail; the rest are returned
// bare so no cipher or storage library text reaches a caller.
var (
	ErrInput        = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
	ErrNotFound     = errors.New("share not found")
	ErrStorage      = errors.New("storage failure")
	ErrDecryption   = errors.New("stored content could not be decrypted")
)

var (
	errEmptyContent = fmt.Errorf("%w: content is empty", ErrInput)
	errTooLarge     = fmt.Errorf("%w: content exceeds %d bytes", ErrInput, MaxContentSize)
	errEmptyToken   = fmt.Errorf("%w: token is empty", ErrInput)
)
