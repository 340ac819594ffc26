package stagecraft

import "errors"

var (
	// ErrDuplicateKey is returned when a scene is added under a key that is
	// already registered.
	ErrDuplicateKey = errors.New("stagecraft: duplicate scene key")
	// ErrMissingCapability is returned when a scene requires a capability
	// its injection map does not provide.
	ErrMissingCapability = errors.New("stagecraft: missing scene capability")
	// ErrInvalidAtlas is returned for atlas data that cannot describe frames.
	ErrInvalidAtlas = errors.New("stagecraft: invalid atlas data")
	// ErrUnknownFileType is returned by the loader for an unsupported file type.
	ErrUnknownFileType = errors.New("stagecraft: unknown file type")
	// ErrInvalidDataURI is returned when a base64 texture is not a data URI.
	ErrInvalidDataURI = errors.New("stagecraft: invalid data URI")
)
