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
	"fmt"
	"strings"
)

// Parse parses s. A backslash before '$' escapes it; a '$' that does not
// open "${" is literal. Variable names are letters, digits and underscores,
// optionally joined by single dashes. Everything between the first ':' and
// the closing '}' is the default.
func Parse(s string) (String, error) {
	var (
		out String
		lit strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, segment{Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == '$':
			lit.WriteByte('$')
			i++
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated variable at offset %d in %q", i, s)
			}
			v, err := parseVariable(s[i+2 : i+2+end])
			if err != nil {
				return nil, fmt.Errorf("invalid variable at offset %d in %q: %v", i, s, err)
			}
			flush()
			out = append(out, v)
			i += 2 + end
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return out, nil
}

func parseVariable(body string) (segment, error) {
	v := segment{Variable: true, Text: body}
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		v.Text = body[:idx]
		v.Default = body[idx+1:]
		v.HasDefault = true
	}
	if err := checkName(v.Text); err != nil {
		return segment{}, err
	}
	return v, nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	dash := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-':
			if dash {
				return fmt.Errorf("misplaced '-' in %q", name)
			}
			dash = true
		case c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9'):
			dash = false
		default:
			return fmt.Errorf("unexpected %q in %q", c, name)
		}
	}
	if dash {
		return fmt.Errorf("misplaced '-' in %q", name)
	}
	return nil
}
