package main

import (
	"errors"

	"github.com/asesor-publico/noticias/internal/domain"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
	exitUnknownLocality
	exitUpstream
	exitMalformed
)

// usageError reports a malformed command line.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return "usage: " + e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var (
		usage     *usageError
		cfgErr    *domain.ConfigurationError
		unknown   *domain.UnknownLocalityError
		upstream  *domain.UpstreamError
		malformed *domain.MalformedResponseError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage), errors.As(err, &cfgErr):
		return exitUsage
	case errors.As(err, &unknown):
		return exitUnknownLocality
	case errors.As(err, &upstream):
		return exitUpstream
	case errors.As(err, &malformed):
		return exitMalformed
	default:
		return exitFailure
	}
}
