// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package flowerrors

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CodeOK means no error; returned on success
	CodeOK Code = 0

	// CodeUnknown means an unknown error. Errors raised by bindings that do
	// not carry a Status are converted to this code.
	CodeUnknown Code = 1

	// CodeInvalidArgument means the caller specified an invalid argument,
	// typically a configuration value that can never be valid.
	CodeInvalidArgument Code = 2

	// CodeInvalidFrame means a frame could not be decoded: it was shorter
	// than the fixed header, carried an unknown type discriminant, or
	// declared a length that exceeds the bytes available.
	//
	// An invalid frame is fatal to the stream half it was read from only.
	CodeInvalidFrame Code = 3

	// CodeFlowControl means the sequence, acknowledge or maximum of a stream
	// half would break the window invariant:
	//
	//   acknowledge <= sequence <= acknowledge + maximum
	//
	// It is a protocol error from a misbehaving peer or binding and is never
	// silently corrected.
	CodeFlowControl Code = 4

	// CodeUnresolvedRoute means no route of a binding matched the attributes
	// and authorization of a stream. Retrying the same stream cannot succeed.
	CodeUnresolvedRoute Code = 5

	// CodeAttachFailed means a binding refused its configuration during
	// attach. The previous configuration of the namespace stays active.
	CodeAttachFailed Code = 6

	// CodeNotFound means a namespace, binding or budget was not found.
	CodeNotFound Code = 7

	// CodeResourceExhausted means a bounded resource is full: the budget
	// table, a pending write list, or the signaler.
	CodeResourceExhausted Code = 8

	// CodeFailedPrecondition means the operation was rejected because the
	// stream, engine or binding is not in a state that allows it. For
	// example, a Data frame written on a half that was never begun.
	CodeFailedPrecondition Code = 9

	// CodeUnavailable means a queue between workers is momentarily full. It
	// is the coarse, outer layer of backpressure and may be retried once the
	// consumer has drained.
	CodeUnavailable Code = 10

	// CodeInternal means some invariant expected by the engine itself has been
	// broken. This error code is reserved for serious errors.
	CodeInternal Code = 11
)

var (
	_codeToString = map[Code]string{
		CodeOK:                 "ok",
		CodeUnknown:            "unknown",
		CodeInvalidArgument:    "invalid-argument",
		CodeInvalidFrame:       "invalid-frame",
		CodeFlowControl:        "flow-control",
		CodeUnresolvedRoute:    "unresolved-route",
		CodeAttachFailed:       "attach-failed",
		CodeNotFound:           "not-found",
		CodeResourceExhausted:  "resource-exhausted",
		CodeFailedPrecondition: "failed-precondition",
		CodeUnavailable:        "unavailable",
		CodeInternal:           "internal",
	}
	_stringToCode = map[string]Code{
		"ok":                  CodeOK,
		"unknown":             CodeUnknown,
		"invalid-argument":    CodeInvalidArgument,
		"invalid-frame":       CodeInvalidFrame,
		"flow-control":        CodeFlowControl,
		"unresolved-route":    CodeUnresolvedRoute,
		"attach-failed":       CodeAttachFailed,
		"not-found":           CodeNotFound,
		"resource-exhausted":  CodeResourceExhausted,
		"failed-precondition": CodeFailedPrecondition,
		"unavailable":         CodeUnavailable,
		"internal":            CodeInternal,
	}
)

// Code represents the class of a streaming runtime error.
//
// Services should return the most specific code that applies. For example,
// prefer CodeFlowControl over CodeFailedPrecondition when a window was
// exceeded.
type Code int

// String returns the the string representation of the Code.
func (c Code) String() string {
	s, ok := _codeToString[c]
	if ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	s, ok := _codeToString[c]
	if ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unknown code: %d", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	i, ok := _stringToCode[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("unknown code string: %s", string(text))
	}
	*c = i
	return nil
}
