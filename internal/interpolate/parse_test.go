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

package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lit(s string) segment { return segment{Text: s} }

func TestParseSuccess(t *testing.T) {
	tests := []struct {
		give string
		want String
	}{
		{give: "", want: nil},
		{give: "foo", want: String{lit("foo")}},
		{
			give: "foo ${bar} baz",
			want: String{lit("foo "), {Text: "bar", Variable: true}, lit(" baz")},
		},
		{give: "foo $ {bar} baz", want: String{lit("foo $ {bar} baz")}},
		{
			give: "foo ${bar:}",
			want: String{lit("foo "), {Text: "bar", Variable: true, HasDefault: true}},
		},
		{
			give: "${foo:bar}",
			want: String{{Text: "foo", Variable: true, Default: "bar", HasDefault: true}},
		},
		{give: `foo \${bar:42} baz`, want: String{lit("foo ${bar:42} baz")}},
		{
			give: "$foo${bar}",
			want: String{lit("$foo"), {Text: "bar", Variable: true}},
		},
		{
			give: "foo${b-a-r}",
			want: String{lit("foo"), {Text: "b-a-r", Variable: true}},
		},
		{
			give: "foo ${bar::baz} qux",
			want: String{lit("foo "), {Text: "bar", Variable: true, Default: ":baz", HasDefault: true}, lit(" qux")},
		},
		{
			give: "a ${b:hello world} c",
			want: String{lit("a "), {Text: "b", Variable: true, Default: "hello world", HasDefault: true}, lit(" c")},
		},
		{
			give: "foo $${bar}",
			want: String{lit("foo $"), {Text: "bar", Variable: true}},
		},
		{
			give: "${HOST}:${PORT:8080}",
			want: String{
				{Text: "HOST", Variable: true},
				lit(":"),
				{Text: "PORT", Variable: true, Default: "8080", HasDefault: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			out, err := Parse(tt.give)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestParseFailures(t *testing.T) {
	tests := []string{
		"${foo",
		"${}",
		"${:default}",
		"${foo.}",
		"${foo-}",
		"${-foo}",
		"${foo--bar}",
		"${foo bar}",
	}

	for _, tt := range tests {
		_, err := Parse(tt)
		assert.Error(t, err, tt)
	}
}
