package ifmap

import "errors"

var (
	ErrMalformedDocument = errors.New("malformed poll document")
	ErrNoPollResult      = errors.New("no pollResult in document")
	ErrBadSequence       = errors.New("resultItem without valid sequence number")
)
