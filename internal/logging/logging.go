// Package logging builds the zap logger used across signalbox.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a sugared logger: human-readable console output in development,
// JSON otherwise.
func New(development bool) (*zap.SugaredLogger, error) {
	var (
		z   *zap.Logger
		err error
	)
	if development {
		z, err = zap.NewDevelopmentConfig().Build()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return z.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
