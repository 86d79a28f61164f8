package contract

import "errors"

// Configuration errors. They are returned before any network I/O.
var (
	ErrNoProvider       = errors.New("please call SetProvider() first before calling New()")
	ErrNoBinary         = errors.New("contract binary not set, can't deploy new instance")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrNotDeployed      = errors.New("not deployed or address not set")
	ErrUnknownMethod    = errors.New("unknown method")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrUnknownNetwork   = errors.New("can't find artifacts for network id")
	ErrUnknownExtension = errors.New("unknown extension")
	ErrArgumentCount    = errors.New("wrong number of arguments")
)
