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

package router

import (
	"fmt"
	"strings"
)

// Kind is the role a binding plays in a pipeline.
type Kind int

const (
	// KindUnknown is the zero value and is never valid.
	KindUnknown Kind = iota
	// KindServer accepts streams from outside the engine.
	KindServer
	// KindClient opens streams to outside the engine.
	KindClient
	// KindProxy relays streams between other bindings.
	KindProxy
	// KindRemoteServer accepts streams on behalf of a remote peer.
	KindRemoteServer
	// KindCacheClient reads through a local cache.
	KindCacheClient
	// KindCacheServer fills a local cache.
	KindCacheServer
)

var _kindNames = map[Kind]string{
	KindServer:       "server",
	KindClient:       "client",
	KindProxy:        "proxy",
	KindRemoteServer: "remote_server",
	KindCacheClient:  "cache_client",
	KindCacheServer:  "cache_server",
}

var _kindsByName = map[string]Kind{
	"server":        KindServer,
	"client":        KindClient,
	"proxy":         KindProxy,
	"remote_server": KindRemoteServer,
	"cache_client":  KindCacheClient,
	"cache_server":  KindCacheServer,
}

// ParseKind parses the name of a Kind, ignoring case.
func ParseKind(s string) (Kind, error) {
	k, ok := _kindsByName[strings.ToLower(s)]
	if !ok {
		return KindUnknown, fmt.Errorf("unknown binding kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := _kindNames[k]
	return ok
}

func (k Kind) String() string {
	if s, ok := _kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	s, ok := _kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown binding kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
