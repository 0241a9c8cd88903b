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

// NamespaceConfig declares a namespace of bindings.
type NamespaceConfig struct {
	Name     string
	Bindings []BindingConfig
}

// BindingConfig declares one binding of a namespace.
type BindingConfig struct {
	Name string
	// Type names the binding type that implements the binding.
	Type string
	Kind Kind
	// Options are handed to the binding type as they were decoded.
	Options map[string]interface{}
	Routes  []RouteConfig
	// Exit, if set, is the target of streams no route matched.
	Exit string
}

// RouteConfig declares a route of a binding. Targets are binding names of
// the same namespace or "namespace:name" references.
type RouteConfig struct {
	// When holds alternative conditions; the route matches if any does.
	// A route without conditions matches every stream.
	When  []map[string]string
	Exit  string
	Guard uint64
}
