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

package version

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrInvalidVersion = errors.Base("invalid version")
	ErrNoVersion      = errors.Base("no version found")
)

// 🏷️ Kind classifies a version as a final release or a development build
type Kind int

const (
	Release Kind = iota
	Dev          // pre-release or post-release
)

func (k Kind) String() string {
	if k == Dev {
		return "dev"
	}
	return "release"
}

// 🔌 Lookup finds the version of a package by name
type Lookup interface {
	Lookup(ctx context.Context, pkgName string) (*Info, error)
}

// 📦 Info is the parsed version of a package
type Info struct {
	Package string
	Raw     string          // version as found
	Public  string          // version without the "v" prefix and local/build segment
	Semver  *semver.Version // release segment plus pre-release, for comparisons
	Kind    Kind
}

// IsDev reports whether the version is a pre-release or post-release
func (i *Info) IsDev() bool {
	return i.Kind == Dev
}

func (i *Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Package, i.Public, i.Kind)
}

// pep440 matches the release, pre, post and dev segments of a python style version
var pep440 = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` +
	`(?:(?:[-_.]?(post|rev|r)[-_.]?(\d*))|(?:-(\d+)))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?$`)

// 🔍 Parse parses a PEP 440 or semver version string. PEP 440 versions get a normalized
// public form, semver versions are kept as written.
func Parse(pkg, raw string) (*Info, error) {
	trimmed := strings.TrimSpace(raw)
	public := strings.TrimPrefix(strings.TrimPrefix(trimmed, "v"), "V")
	if i := strings.IndexByte(public, '+'); i >= 0 {
		public = public[:i]
	}
	if public == "" {
		return nil, errors.Errorf("%w: %q for package %s", ErrInvalidVersion, raw, pkg)
	}

	info := &Info{Package: pkg, Raw: raw, Public: public}

	// python style first so the public version matches what pip and PyPI show
	if m := pep440.FindStringSubmatch(public); m != nil {
		return parsePEP440(info, m)
	}

	sv, err := semver.StrictNewVersion(public)
	if err != nil {
		return nil, errors.Errorf("%w: %q for package %s", ErrInvalidVersion, raw, pkg)
	}
	info.Semver = sv
	if sv.Prerelease() != "" {
		info.Kind = Dev
	}
	return info, nil
}

// parsePEP440 fills info from the pep440 submatches, normalizing the public version
// ("2.1.0-RC1" -> "2.1.0rc1", "1.0-1" -> "1.0.post1", "0.3-dev" -> "0.3.dev0")
func parsePEP440(info *Info, m []string) (*Info, error) {
	release := normalizeRelease(m[1])

	sv, err := semver.NewVersion(releaseSegment(release))
	if err != nil {
		return nil, errors.Errorf("%w: %q for package %s: %s", ErrInvalidVersion, info.Raw, info.Package, err.Error())
	}

	public := release
	var pre []string
	if m[2] != "" {
		label := preLabels[strings.ToLower(m[2])]
		public += label + number(m[3])
		pre = append(pre, label, number(m[3]))
	}
	if m[4] != "" || m[6] != "" {
		n := number(m[5])
		if m[6] != "" {
			n = number(m[6])
		}
		public += ".post" + n
		pre = append(pre, "post", n)
	}
	if m[7] != "" {
		public += ".dev" + number(m[8])
		pre = append(pre, "dev", number(m[8]))
	}
	info.Public = public

	if len(pre) > 0 {
		info.Kind = Dev
		withPre, err := sv.SetPrerelease(strings.Join(pre, "."))
		if err != nil {
			return nil, errors.Errorf("%w: %q for package %s: %s", ErrInvalidVersion, info.Raw, info.Package, err.Error())
		}
		sv = &withPre
	}
	info.Semver = sv

	return info, nil
}

// preLabels maps pre-release spellings to their normal form
var preLabels = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"c":       "rc",
	"rc":      "rc",
	"pre":     "rc",
	"preview": "rc",
}

// normalizeRelease drops leading zeros from every release component
func normalizeRelease(rel string) string {
	parts := strings.Split(rel, ".")
	for i, p := range parts {
		parts[i] = number(p)
	}
	return strings.Join(parts, ".")
}

// releaseSegment keeps at most major.minor.patch of a dotted release
func releaseSegment(rel string) string {
	parts := strings.Split(rel, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ".")
}

// number strips leading zeros, an empty number is 0
func number(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// 📌 Static always returns the same version
type Static struct {
	Version string
}

func (s Static) Lookup(ctx context.Context, pkgName string) (*Info, error) {
	if s.Version == "" {
		return nil, errors.Errorf("%w for package %s", ErrNoVersion, pkgName)
	}
	return Parse(pkgName, s.Version)
}
