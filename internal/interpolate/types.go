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

// Package interpolate expands ${VAR} and ${VAR:default} references in
// configuration strings.
package interpolate

import (
	"fmt"
	"strings"
)

// VariableResolver returns the value of a variable and whether it has one.
type VariableResolver func(name string) (value string, ok bool)

// segment is either literal text or a variable reference.
type segment struct {
	Text       string
	Variable   bool
	Default    string
	HasDefault bool
}

// String is a parsed string. Obtain one with Parse.
type String []segment

// Variables returns the names of the variables referenced by s, in order.
func (s String) Variables() []string {
	var names []string
	for _, seg := range s {
		if seg.Variable {
			names = append(names, seg.Text)
		}
	}
	return names
}

// Render expands every variable of s with resolve. A variable without a
// value or a default fails the render.
func (s String) Render(resolve VariableResolver) (string, error) {
	var b strings.Builder
	for _, seg := range s {
		if !seg.Variable {
			b.WriteString(seg.Text)
			continue
		}
		if v, ok := resolve(seg.Text); ok {
			b.WriteString(v)
		} else if seg.HasDefault {
			b.WriteString(seg.Default)
		} else {
			return "", UnknownVariableError{Name: seg.Text}
		}
	}
	return b.String(), nil
}

// UnknownVariableError is returned by Render for a variable that has neither
// a value nor a default.
type UnknownVariableError struct{ Name string }

func (e UnknownVariableError) Error() string {
	return fmt.Sprintf("variable %q does not have a value or a default", e.Name)
}
