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

package frame

import (
	"encoding/binary"

	"go.uber.org/flowgate/flowerrors"
)

// Version identifies the header layout below. It changes whenever the
// position or width of a header field changes.
const Version = 1

// HeaderSize is the size in bytes of the fixed header shared by every type.
const HeaderSize = 72

// IdentitySize is the size of the header prefix holding the type and the
// stream identity.
const IdentitySize = 28

const (
	offType          = 0
	offOrigin        = 4
	offRouted        = 12
	offStream        = 20
	offSequence      = 28
	offAcknowledge   = 36
	offMaximum       = 44
	offTimestamp     = 48
	offTrace         = 56
	offAuthorization = 64

	octetsHeader = 4
	absent       = -1
	absentWire   = 0xFFFFFFFF
)

var (
	// ErrTruncated is returned when a buffer is shorter than HeaderSize.
	ErrTruncated error = flowerrors.Newf(flowerrors.CodeInvalidFrame, "frame shorter than header")
	// ErrUnknownType is returned for an unknown type discriminant.
	ErrUnknownType error = flowerrors.Newf(flowerrors.CodeInvalidFrame, "unknown frame type")
	// ErrLength is returned when a type-specific section is short or an
	// octets length exceeds the remaining bytes.
	ErrLength error = flowerrors.Newf(flowerrors.CodeInvalidFrame, "frame length out of bounds")
	// ErrBufferTooSmall is returned by Encode when the frame does not fit.
	ErrBufferTooSmall error = flowerrors.Newf(flowerrors.CodeInvalidFrame, "buffer too small for frame")
)

var le = binary.LittleEndian

// Size returns the number of bytes Encode needs for f.
func Size(f *Frame) int {
	n := HeaderSize
	switch f.Type {
	case TypeBegin:
		n += 8 + octetsSize(f.Extension)
	case TypeData:
		n += 8 + 4 + 1 + octetsSize(f.Payload) + octetsSize(f.Extension)
	case TypeFlush:
		n += 8 + 4 + octetsSize(f.Extension)
	case TypeWindow:
		n += 8 + 4 + 4 + 1
	case TypeSignal:
		n += 8 + 4 + 4 + octetsSize(f.Payload)
	default:
		n += octetsSize(f.Extension)
	}
	return n
}

func octetsSize(b []byte) int {
	return octetsHeader + len(b)
}

// Encode writes f into b and returns the number of bytes written. It does
// not allocate.
func Encode(b []byte, f *Frame) (int, error) {
	if !f.Type.Valid() {
		return 0, ErrUnknownType
	}
	n := Size(f)
	if len(b) < n {
		return 0, ErrBufferTooSmall
	}

	le.PutUint32(b[offType:], uint32(f.Type))
	le.PutUint64(b[offOrigin:], f.OriginID)
	le.PutUint64(b[offRouted:], f.RoutedID)
	le.PutUint64(b[offStream:], f.StreamID)
	le.PutUint64(b[offSequence:], uint64(f.Sequence))
	le.PutUint64(b[offAcknowledge:], uint64(f.Acknowledge))
	le.PutUint32(b[offMaximum:], uint32(f.Maximum))
	le.PutUint64(b[offTimestamp:], uint64(f.Timestamp))
	le.PutUint64(b[offTrace:], f.TraceID)
	le.PutUint64(b[offAuthorization:], f.Authorization)

	off := HeaderSize
	switch f.Type {
	case TypeBegin:
		le.PutUint64(b[off:], f.Affinity)
		off += 8
		off = putOctets(b, off, f.Extension)
	case TypeData:
		le.PutUint64(b[off:], f.BudgetID)
		le.PutUint32(b[off+8:], uint32(f.Reserved))
		b[off+12] = f.Flags
		off += 13
		off = putOctets(b, off, f.Payload)
		off = putOctets(b, off, f.Extension)
	case TypeFlush:
		le.PutUint64(b[off:], f.BudgetID)
		le.PutUint32(b[off+8:], uint32(f.Reserved))
		off += 12
		off = putOctets(b, off, f.Extension)
	case TypeWindow:
		le.PutUint64(b[off:], f.BudgetID)
		le.PutUint32(b[off+8:], uint32(f.Padding))
		le.PutUint32(b[off+12:], uint32(f.Minimum))
		b[off+16] = f.Capabilities
		off += 17
	case TypeSignal:
		le.PutUint64(b[off:], uint64(f.CancelID))
		le.PutUint32(b[off+8:], uint32(f.SignalID))
		le.PutUint32(b[off+12:], uint32(f.ContextID))
		off += 16
		off = putOctets(b, off, f.Payload)
	default:
		off = putOctets(b, off, f.Extension)
	}
	return off, nil
}

func putOctets(b []byte, off int, v []byte) int {
	if v == nil {
		le.PutUint32(b[off:], absentWire)
		return off + octetsHeader
	}
	l := int32(len(v))
	le.PutUint32(b[off:], uint32(l))
	off += octetsHeader
	return off + copy(b[off:], v)
}

// DecodeIdentity reads only the type and stream identity of an encoded
// frame. It reports false if b is too short to hold them.
func DecodeIdentity(b []byte) (Type, StreamIdentity, bool) {
	if len(b) < IdentitySize {
		return 0, StreamIdentity{}, false
	}
	return Type(le.Uint32(b[offType:])), StreamIdentity{
		OriginID: le.Uint64(b[offOrigin:]),
		RoutedID: le.Uint64(b[offRouted:]),
		StreamID: le.Uint64(b[offStream:]),
	}, true
}

// Decode fills f from b. Payload and Extension alias b.
//
// On error f is left cleared.
func Decode(b []byte, f *Frame) error {
	f.Clear()
	if len(b) < HeaderSize {
		return ErrTruncated
	}
	t := Type(le.Uint32(b[offType:]))
	if !t.Valid() {
		return ErrUnknownType
	}

	f.Type = t
	f.OriginID = le.Uint64(b[offOrigin:])
	f.RoutedID = le.Uint64(b[offRouted:])
	f.StreamID = le.Uint64(b[offStream:])
	f.Sequence = int64(le.Uint64(b[offSequence:]))
	f.Acknowledge = int64(le.Uint64(b[offAcknowledge:]))
	f.Maximum = int32(le.Uint32(b[offMaximum:]))
	f.Timestamp = int64(le.Uint64(b[offTimestamp:]))
	f.TraceID = le.Uint64(b[offTrace:])
	f.Authorization = le.Uint64(b[offAuthorization:])

	var err error
	off := HeaderSize
	switch t {
	case TypeBegin:
		if len(b) < off+8 {
			err = ErrLength
			break
		}
		f.Affinity = le.Uint64(b[off:])
		off += 8
		f.Extension, _, err = getOctets(b, off)
	case TypeData:
		if len(b) < off+13 {
			err = ErrLength
			break
		}
		f.BudgetID = le.Uint64(b[off:])
		f.Reserved = int32(le.Uint32(b[off+8:]))
		f.Flags = b[off+12]
		off += 13
		if f.Payload, off, err = getOctets(b, off); err == nil {
			f.Extension, _, err = getOctets(b, off)
		}
	case TypeFlush:
		if len(b) < off+12 {
			err = ErrLength
			break
		}
		f.BudgetID = le.Uint64(b[off:])
		f.Reserved = int32(le.Uint32(b[off+8:]))
		off += 12
		f.Extension, _, err = getOctets(b, off)
	case TypeWindow:
		if len(b) < off+17 {
			err = ErrLength
			break
		}
		f.BudgetID = le.Uint64(b[off:])
		f.Padding = int32(le.Uint32(b[off+8:]))
		f.Minimum = int32(le.Uint32(b[off+12:]))
		f.Capabilities = b[off+16]
	case TypeSignal:
		if len(b) < off+16 {
			err = ErrLength
			break
		}
		f.CancelID = int64(le.Uint64(b[off:]))
		f.SignalID = int32(le.Uint32(b[off+8:]))
		f.ContextID = int32(le.Uint32(b[off+12:]))
		off += 16
		f.Payload, _, err = getOctets(b, off)
	default:
		f.Extension, _, err = getOctets(b, off)
	}

	if err != nil {
		f.Clear()
	}
	return err
}

func getOctets(b []byte, off int) ([]byte, int, error) {
	if len(b) < off+octetsHeader {
		return nil, off, ErrLength
	}
	l := int32(le.Uint32(b[off:]))
	off += octetsHeader
	if l == absent {
		return nil, off, nil
	}
	if l < 0 || int(l) > len(b)-off {
		return nil, off, ErrLength
	}
	end := off + int(l)
	return b[off:end:end], end, nil
}
