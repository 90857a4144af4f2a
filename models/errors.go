package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Match them with errors.Is.
var (
	ErrNetworkFailure  = errors.New("network failure")
	ErrMalformedMarkup = errors.New("malformed markup")
	ErrMissingField    = errors.New("missing field")
	ErrStorage         = errors.New("storage error")
)

// FetchError reports a connection or timeout failure for a single URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrNetworkFailure, e.Err}
}

// ParseError reports markup that could not be turned into a listing or recipe.
// Field is set when a required recipe block is absent.
type ParseError struct {
	URL   string
	Field string
	Err   error
}

// NewMissingField returns the error for a recipe page that lacks a required block.
func NewMissingField(url, field string) *ParseError {
	return &ParseError{URL: url, Field: field, Err: ErrMissingField}
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Field)
	}
	if e.URL == "" {
		return msg
	}
	return e.URL + ": " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure from the downstream record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}
