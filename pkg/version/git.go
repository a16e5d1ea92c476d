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
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🌳 Git derives a package version from the tags of the repository containing Dir.
//
// Tags named "<pkg>-v1.2.3" or "<pkg>/v1.2.3" are preferred over plain "v1.2.3" / "1.2.3".
// A tagged HEAD is that version; otherwise the next patch is returned as a dev build,
// e.g. "1.2.4.dev3+g1a2b3c4" three commits after "v1.2.3".
type Git struct {
	Dir string
}

type taggedVersion struct {
	info     *Info
	prefixed bool
}

func (g Git) Lookup(ctx context.Context, pkgName string) (*Info, error) {
	logger := zerolog.Ctx(ctx)

	repo, err := git.PlainOpenWithOptions(g.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Errorf("opening repository at %s: %w", g.Dir, err)
	}

	tags, err := tagsByCommit(repo, pkgName)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.Errorf("resolving HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, errors.Errorf("loading HEAD commit: %w", err)
	}

	// walk first parents until a tagged commit shows up
	for distance := 0; ; distance++ {
		if tv, ok := tags[commit.Hash]; ok {
			logger.Debug().
				Str("package", pkgName).
				Str("tag_version", tv.info.Public).
				Int("distance", distance).
				Msg("found version tag")
			if distance == 0 {
				return tv.info, nil
			}
			return devAfter(pkgName, tv.info, distance, head.Hash())
		}
		if commit.NumParents() == 0 {
			break
		}
		commit, err = commit.Parent(0)
		if err != nil {
			return nil, errors.Errorf("walking history: %w", err)
		}
	}

	return nil, errors.Errorf("%w for package %s: no version tag reachable from HEAD in %s", ErrNoVersion, pkgName, g.Dir)
}

// tagsByCommit maps commits to the best version tag pointing at them
func tagsByCommit(repo *git.Repository, pkgName string) (map[plumbing.Hash]taggedVersion, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, errors.Errorf("listing tags: %w", err)
	}

	out := map[plumbing.Hash]taggedVersion{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		raw, prefixed, ok := tagVersion(ref.Name().Short(), pkgName)
		if !ok {
			return nil
		}
		info, err := Parse(pkgName, raw)
		if err != nil {
			return nil
		}

		hash := ref.Hash()
		// annotated tags point at a tag object
		if tagObj, err := repo.TagObject(hash); err == nil {
			c, err := tagObj.Commit()
			if err != nil {
				return nil
			}
			hash = c.Hash
		} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
			return errors.Errorf("reading tag %s: %w", ref.Name().Short(), err)
		}

		if cur, ok := out[hash]; ok && betterTag(cur, taggedVersion{info: info, prefixed: prefixed}) {
			return nil
		}
		out[hash] = taggedVersion{info: info, prefixed: prefixed}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("reading tags: %w", err)
	}

	return out, nil
}

// tagVersion extracts the version part of a tag name
func tagVersion(tag, pkgName string) (string, bool, bool) {
	for _, sep := range []string{"-", "/"} {
		if rest, ok := strings.CutPrefix(tag, pkgName+sep); ok {
			return strings.TrimPrefix(rest, "v"), true, true
		}
	}
	if strings.ContainsAny(tag, "/") {
		return "", false, false
	}
	rest := strings.TrimPrefix(tag, "v")
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return "", false, false
	}
	return rest, false, true
}

// betterTag reports whether cur should win over next for the same commit
func betterTag(cur, next taggedVersion) bool {
	if cur.prefixed != next.prefixed {
		return cur.prefixed
	}
	return cur.info.Semver.GreaterThan(next.info.Semver)
}

func devAfter(pkgName string, base *Info, distance int, head plumbing.Hash) (*Info, error) {
	// IncPatch drops the pre-release of a dev tag instead of bumping
	next := base.Semver.IncPatch()
	raw := fmt.Sprintf("%d.%d.%d.dev%d+g%s", next.Major(), next.Minor(), next.Patch(), distance, head.String()[:7])
	return Parse(pkgName, raw)
}

var (
	_ Lookup = Git{}
	_ Lookup = Static{}
)
