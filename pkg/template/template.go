// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package template expands destination templates such as "/srv/docs/{name}/{version}".
//
// {name} is a placeholder, {{ and }} are literal braces and a dollar sign in front of a
// placeholder ("${version}") keeps the placeholder text verbatim.
package template

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	ErrMalformed          = errors.Base("malformed template")
	ErrUnknownPlaceholder = errors.Base("unknown placeholder")
)

// 🧩 tokenKind identifies a piece of a parsed template
type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenPlaceholder
)

type token struct {
	kind  tokenKind
	value string // literal text or placeholder name
}

// 🔍 parse splits a template into literal and placeholder tokens
func parse(tmpl string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, value: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, errors.Errorf("%w: unterminated '{' at offset %d in %q", ErrMalformed, i, tmpl)
			}
			name := tmpl[i+1 : i+end]
			if !validName(name) {
				return nil, errors.Errorf("%w: invalid placeholder %q in %q", ErrMalformed, name, tmpl)
			}
			// a dollar right before the placeholder keeps it as text
			if i > 0 && tmpl[i-1] == '$' {
				lit.WriteString(tmpl[i : i+end+1])
			} else {
				flush()
				tokens = append(tokens, token{kind: tokenPlaceholder, value: name})
			}
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, errors.Errorf("%w: single '}' at offset %d in %q", ErrMalformed, i, tmpl)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return tokens, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// 📋 Placeholders returns the names of the unescaped placeholders, in order of appearance
func Placeholders(tmpl string) ([]string, error) {
	tokens, err := parse(tmpl)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, t := range tokens {
		if t.kind == tokenPlaceholder {
			names = append(names, t.value)
		}
	}
	return names, nil
}

// References reports whether the template uses the named placeholder outside of an escape
func References(tmpl, name string) (bool, error) {
	names, err := Placeholders(tmpl)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// 🔄 Expand substitutes every placeholder with its value from vars
func Expand(tmpl string, vars map[string]string) (string, error) {
	tokens, err := parse(tmpl)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, t := range tokens {
		if t.kind == tokenLiteral {
			out.WriteString(t.value)
			continue
		}
		val, ok := vars[t.value]
		if !ok {
			return "", errors.Errorf("%w {%s} in %q", ErrUnknownPlaceholder, t.value, tmpl)
		}
		out.WriteString(val)
	}

	return out.String(), nil
}
