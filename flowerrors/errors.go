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
	"bytes"
	"errors"
	"fmt"
)

// Newf returns a new Status.
//
// The Code should never be CodeOK, if it is, this will return nil.
func Newf(code Code, format string, args ...interface{}) *Status {
	if code == CodeOK {
		return nil
	}

	var err error
	if len(args) == 0 {
		err = errors.New(format)
	} else {
		err = fmt.Errorf(format, args...)
	}

	return &Status{
		code: code,
		err:  err,
	}
}

// Wrap returns a new Status with the given code whose message is that of
// err. The cause stays reachable through errors.Unwrap.
//
// Wrap returns nil if err is nil.
func Wrap(code Code, err error) *Status {
	if err == nil || code == CodeOK {
		return nil
	}
	return &Status{
		code: code,
		err:  &wrapError{err: err},
	}
}

type flowError interface {
	FlowError() *Status
}

// FromError returns the Status for the provided error.
//
// If the error:
//  - is nil, return nil
//  - is a 'Status', return the 'Status'
//  - has a 'FlowError() *Status' method, returns the 'Status'
// Otherwise, return a wrapped error with code 'CodeUnknown'.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}

	if st, ok := fromError(err); ok {
		return st
	}

	return &Status{
		code: CodeUnknown,
		err:  &wrapError{err: err},
	}
}

func fromError(err error) (st *Status, ok bool) {
	if errors.As(err, &st) {
		return st, true
	}

	var ferr flowError
	if errors.As(err, &ferr) {
		return ferr.FlowError(), true
	}
	return nil, false
}

// IsStatus returns whether the provided error is a Status, or has a
// FlowError() function to represent the error as a Status. This includes
// wrapped errors.
//
// This is false if the error is nil.
func IsStatus(err error) bool {
	_, ok := fromError(err)
	return ok
}

// CodeOf returns the Code of the given error. Nil errors are CodeOK.
func CodeOf(err error) Code {
	return FromError(err).Code()
}

// Status represents a streaming runtime error.
type Status struct {
	code Code
	err  error
}

// Unwrap supports errors.Unwrap.
func (s *Status) Unwrap() error {
	if s == nil {
		return nil
	}
	return errors.Unwrap(s.err)
}

// Code returns the error code for this Status.
func (s *Status) Code() Code {
	if s == nil {
		return CodeOK
	}
	return s.code
}

// Message returns the error message for this Status.
func (s *Status) Message() string {
	if s == nil {
		return ""
	}
	return s.err.Error()
}

// Error implements the error interface.
func (s *Status) Error() string {
	buffer := bytes.NewBuffer(nil)
	_, _ = buffer.WriteString(`code:`)
	_, _ = buffer.WriteString(s.code.String())
	if s.err != nil && s.err.Error() != "" {
		_, _ = buffer.WriteString(` message:`)
		_, _ = buffer.WriteString(s.err.Error())
	}
	return buffer.String()
}

type wrapError struct {
	err error
}

func (e *wrapError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *wrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// InvalidArgumentErrorf returns a new Status with code CodeInvalidArgument
// by calling Newf(CodeInvalidArgument, format, args...).
func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return Newf(CodeInvalidArgument, format, args...)
}

// InvalidFrameErrorf returns a new Status with code CodeInvalidFrame
// by calling Newf(CodeInvalidFrame, format, args...).
func InvalidFrameErrorf(format string, args ...interface{}) error {
	return Newf(CodeInvalidFrame, format, args...)
}

// FlowControlErrorf returns a new Status with code CodeFlowControl
// by calling Newf(CodeFlowControl, format, args...).
func FlowControlErrorf(format string, args ...interface{}) error {
	return Newf(CodeFlowControl, format, args...)
}

// UnresolvedRouteErrorf returns a new Status with code CodeUnresolvedRoute
// by calling Newf(CodeUnresolvedRoute, format, args...).
func UnresolvedRouteErrorf(format string, args ...interface{}) error {
	return Newf(CodeUnresolvedRoute, format, args...)
}

// AttachFailedErrorf returns a new Status with code CodeAttachFailed
// by calling Newf(CodeAttachFailed, format, args...).
func AttachFailedErrorf(format string, args ...interface{}) error {
	return Newf(CodeAttachFailed, format, args...)
}

// NotFoundErrorf returns a new Status with code CodeNotFound
// by calling Newf(CodeNotFound, format, args...).
func NotFoundErrorf(format string, args ...interface{}) error {
	return Newf(CodeNotFound, format, args...)
}

// ResourceExhaustedErrorf returns a new Status with code CodeResourceExhausted
// by calling Newf(CodeResourceExhausted, format, args...).
func ResourceExhaustedErrorf(format string, args ...interface{}) error {
	return Newf(CodeResourceExhausted, format, args...)
}

// FailedPreconditionErrorf returns a new Status with code CodeFailedPrecondition
// by calling Newf(CodeFailedPrecondition, format, args...).
func FailedPreconditionErrorf(format string, args ...interface{}) error {
	return Newf(CodeFailedPrecondition, format, args...)
}

// UnavailableErrorf returns a new Status with code CodeUnavailable
// by calling Newf(CodeUnavailable, format, args...).
func UnavailableErrorf(format string, args ...interface{}) error {
	return Newf(CodeUnavailable, format, args...)
}

// InternalErrorf returns a new Status with code CodeInternal
// by calling Newf(CodeInternal, format, args...).
func InternalErrorf(format string, args ...interface{}) error {
	return Newf(CodeInternal, format, args...)
}

// IsInvalidArgument returns true if FromError(err).Code() == CodeInvalidArgument.
func IsInvalidArgument(err error) bool {
	return FromError(err).Code() == CodeInvalidArgument
}

// IsInvalidFrame returns true if FromError(err).Code() == CodeInvalidFrame.
func IsInvalidFrame(err error) bool {
	return FromError(err).Code() == CodeInvalidFrame
}

// IsFlowControl returns true if FromError(err).Code() == CodeFlowControl.
func IsFlowControl(err error) bool {
	return FromError(err).Code() == CodeFlowControl
}

// IsUnresolvedRoute returns true if FromError(err).Code() == CodeUnresolvedRoute.
func IsUnresolvedRoute(err error) bool {
	return FromError(err).Code() == CodeUnresolvedRoute
}

// IsAttachFailed returns true if FromError(err).Code() == CodeAttachFailed.
func IsAttachFailed(err error) bool {
	return FromError(err).Code() == CodeAttachFailed
}

// IsNotFound returns true if FromError(err).Code() == CodeNotFound.
func IsNotFound(err error) bool {
	return FromError(err).Code() == CodeNotFound
}

// IsResourceExhausted returns true if FromError(err).Code() == CodeResourceExhausted.
func IsResourceExhausted(err error) bool {
	return FromError(err).Code() == CodeResourceExhausted
}

// IsFailedPrecondition returns true if FromError(err).Code() == CodeFailedPrecondition.
func IsFailedPrecondition(err error) bool {
	return FromError(err).Code() == CodeFailedPrecondition
}

// IsUnavailable returns true if FromError(err).Code() == CodeUnavailable.
func IsUnavailable(err error) bool {
	return FromError(err).Code() == CodeUnavailable
}

// IsInternal returns true if FromError(err).Code() == CodeInternal.
func IsInternal(err error) bool {
	return FromError(err).Code() == CodeInternal
}
