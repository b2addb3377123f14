// Package apperr defines the error taxonomy shared by every component of
// the quote-orchestration pipeline and the HTTP transport that renders it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the stable error codes from the error-handling design.
type Code string

const (
	ChainNotSupported     Code = "CHAIN_NOT_SUPPORTED"
	ChainPaused           Code = "CHAIN_PAUSED"
	PairNotEnabled        Code = "PAIR_NOT_ENABLED"
	StrategyNotConfigured Code = "STRATEGY_NOT_CONFIGURED"
	StrategyNotEnabled    Code = "STRATEGY_NOT_ENABLED"
	StrategyNotFound      Code = "STRATEGY_NOT_FOUND"
	PricingUpstreamFailed Code = "PRICING_UPSTREAM_FAILED"
	StrategyUpstreamFailed Code = "STRATEGY_UPSTREAM_FAILED"
	InvalidAmount         Code = "INVALID_AMOUNT"
	RequestTimeout        Code = "REQUEST_TIMEOUT"
	QuoteNotFound         Code = "QUOTE_NOT_FOUND"
	InvalidRequest        Code = "INVALID_REQUEST"
	Internal              Code = "INTERNAL_SERVER_ERROR"
)

// statusByCode is the HTTP status rendered for each code. Anything missing
// defaults to 400, per the error-handling design ("all surfaced as
// {code, message, statusCode}; 400 unless noted").
var statusByCode = map[Code]int{
	ChainNotSupported:      http.StatusBadRequest,
	ChainPaused:            http.StatusBadRequest,
	PairNotEnabled:         http.StatusBadRequest,
	StrategyNotConfigured:  http.StatusBadRequest,
	StrategyNotEnabled:     http.StatusBadRequest,
	StrategyNotFound:       http.StatusNotFound,
	PricingUpstreamFailed:  http.StatusBadGateway,
	StrategyUpstreamFailed: http.StatusBadGateway,
	InvalidAmount:          http.StatusBadRequest,
	RequestTimeout:         http.StatusGatewayTimeout,
	QuoteNotFound:          http.StatusNotFound,
	InvalidRequest:         http.StatusBadRequest,
	Internal:               http.StatusInternalServerError,
}

// Error is a typed failure carrying the code the transport layer renders.
// Components raise it instead of recovering — the point of rejecting is to
// be loud, so nothing downstream swallows it silently.
type Error struct {
	Code    Code
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// StatusCode returns the HTTP status the transport layer should render.
func (e *Error) StatusCode() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusBadRequest
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Wrapped: cause}
}

// As extracts an *Error from err, falling back to INTERNAL_SERVER_ERROR for
// anything the components didn't classify.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: Internal, Message: err.Error(), Wrapped: err}
}
