package sportsapi

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the fetch pipeline.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindNetwork is a transport failure or a non-2xx HTTP status.
	KindNetwork
	// KindMalformedResponse is a JSON parse failure or an unexpected content type.
	KindMalformedResponse
	// KindMissingData is a valid response without the expected data array.
	KindMissingData
	// KindUnsupportedProvider is a request for a provider outside the known set.
	KindUnsupportedProvider
	// KindMissingCredential means no API token is configured.
	KindMissingCredential
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network_error"
	case KindMalformedResponse:
		return "malformed_response"
	case KindMissingData:
		return "missing_data"
	case KindUnsupportedProvider:
		return "unsupported_provider"
	case KindMissingCredential:
		return "missing_credential"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for candidate := KindNone; candidate <= KindMissingCredential; candidate++ {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNetwork             = errors.New("network error")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrMissingData         = errors.New("missing data")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrMissingCredential   = errors.New("missing credential")
)

var kindSentinels = map[ErrorKind]error{
	KindNetwork:             ErrNetwork,
	KindMalformedResponse:   ErrMalformedResponse,
	KindMissingData:         ErrMissingData,
	KindUnsupportedProvider: ErrUnsupportedProvider,
	KindMissingCredential:   ErrMissingCredential,
}

// Error is a classified pipeline failure.
type Error struct {
	Kind       ErrorKind
	Op         string
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Provider != "" {
		msg = e.Provider + " " + msg
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err. Unclassified errors count as network errors,
// nil is KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindNetwork
}
