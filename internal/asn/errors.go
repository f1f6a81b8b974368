package asn

import "errors"

var (
	// ErrInvalidAddress is returned for anything that is not a dotted-quad IPv4 address
	ErrInvalidAddress = errors.New("not an IPv4 address")
	// ErrNoAnswer is returned when the oracle responded without a usable record
	ErrNoAnswer = errors.New("no ASN answer")
	// ErrMalformedAnswer is returned when the answer cannot be parsed into an ASN
	ErrMalformedAnswer = errors.New("malformed ASN answer")
	// ErrNotFound is returned when the oracle has no origin AS for the address
	ErrNotFound = errors.New("no origin AS for address")
)
