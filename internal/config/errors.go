package config

import "errors"

var (
	// ErrInvalidConfig конфигурация не прошла проверку
	ErrInvalidConfig = errors.New("invalid config")
)
