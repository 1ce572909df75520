package model

import (
	"time"
)

// TokenEvent is one streamed answer fragment.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// ErrorEvent terminates a stream with a failure. Code distinguishes a
// timeout (caller should retry with a shorter question) from a generic
// failure (caller may retry identically).
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

const (
	ErrorCodeTimeout  = "timeout"
	ErrorCodeInternal = "internal"
	ErrorCodeInvalid  = "invalid_request"
)

// DoneEvent terminates a stream successfully.
type DoneEvent struct {
	Done bool `json:"done"`
}

// HeartbeatEvent keeps idle proxies from closing the connection before the
// first token arrives.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
