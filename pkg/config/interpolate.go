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

package config

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔁 MaxInterpolationDepth bounds nested ${...} references
const MaxInterpolationDepth = 10

var (
	ErrInterpolationDepth   = errors.Base("interpolation too deep")
	ErrInterpolationMissing = errors.Base("bad interpolation reference")
	ErrInterpolationSyntax  = errors.Base("bad interpolation syntax")
)

// 🔄 interpolate resolves $$, ${option} and ${section:option} references in value.
// section is the section value was read from, key is only used in error messages.
func (f *File) interpolate(section, key, value string, depth int) (string, error) {
	if depth > MaxInterpolationDepth {
		return "", errors.Errorf("%w: %s:%s (more than %d levels)", ErrInterpolationDepth, section, key, MaxInterpolationDepth)
	}

	var out strings.Builder
	rest := value
	for rest != "" {
		p := strings.IndexByte(rest, '$')
		if p < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:p])
		rest = rest[p:]

		if len(rest) < 2 {
			return "", errors.Errorf("%w: '$' must be followed by '$' or '{' in %s:%s", ErrInterpolationSyntax, section, key)
		}

		switch rest[1] {
		case '$':
			out.WriteByte('$')
			rest = rest[2:]
		case '{':
			end := strings.IndexByte(rest, '}')
			if end < 3 {
				return "", errors.Errorf("%w: bad variable reference %q in %s:%s", ErrInterpolationSyntax, rest, section, key)
			}
			ref := rest[2:end]
			rest = rest[end+1:]

			refSection, refKey, err := splitReference(section, ref)
			if err != nil {
				return "", errors.Errorf("%w in %s:%s", err, section, key)
			}

			raw, ok := f.raw(refSection, refKey)
			if !ok {
				return "", errors.Errorf("%w: %s:%s references ${%s}", ErrInterpolationMissing, section, key, ref)
			}

			if !strings.Contains(raw, "$") {
				out.WriteString(raw)
				continue
			}

			resolved, err := f.interpolate(refSection, refKey, raw, depth+1)
			if err != nil {
				return "", err
			}
			out.WriteString(resolved)
		default:
			return "", errors.Errorf("%w: '$' must be followed by '$' or '{', found %q in %s:%s", ErrInterpolationSyntax, rest, section, key)
		}
	}

	return out.String(), nil
}

// splitReference turns "option" or "section:option" into a section and a key
func splitReference(section, ref string) (string, string, error) {
	parts := strings.Split(ref, ":")
	switch len(parts) {
	case 1:
		return section, strings.ToLower(parts[0]), nil
	case 2:
		return parts[0], strings.ToLower(parts[1]), nil
	}
	return "", "", errors.Errorf("%w: more than one ':' found in ${%s}", ErrInterpolationSyntax, ref)
}
