package assets

import "errors"

var (
	ErrAssetServiceUnavailable = errors.New("asset service unavailable")
	ErrUnknownProvider         = errors.New("unknown asset provider")
	ErrUnsupportedContent      = errors.New("content cannot be transformed")
	// ErrInvalidContent marks a file of a supported type that is corrupt or out of bounds.
	ErrInvalidContent = errors.New("invalid file content")
)
