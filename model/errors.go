package model

import "errors"

var (
	// ErrUnknownType is returned by the factory for unregistered type identifiers.
	ErrUnknownType = errors.New("model: unknown type")
	// ErrDuplicateType is returned when a type identifier is registered twice.
	ErrDuplicateType = errors.New("model: type already registered")
)

// ConfigError reports an invalid model declaration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "model config error in field " + e.Field + ": " + e.Message
}

// UnknownPropertyError is returned when data targets a property the model
// does not declare.
type UnknownPropertyError struct {
	ObjType  string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return "model " + e.ObjType + ": unknown property " + e.Property
}
