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

package deploy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	cp "github.com/otiai10/copy"
	"github.com/rs/zerolog"
	"github.com/walteh/little-deploy/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 📊 Result summarizes what Execute copied
type Result struct {
	Source      string
	Destination string
	Files       int
	Dirs        int
	Skipped     []string // relative paths matched by an ignore pattern
}

// 🏃 Execute clears the destination when the plan says so and copies the source into it.
//
// Copy failures are returned as is. Whatever was already copied stays in place.
func Execute(ctx context.Context, plan *Plan) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	console.StartDeployment(ctx, log.Deployment{
		Project:     plan.Project,
		Type:        plan.Type,
		Source:      plan.Source,
		Destination: plan.Destination,
		Version:     plan.Version,
		Replace:     plan.Action == ActionReplace,
	})
	defer console.EndDeployment(ctx)

	if plan.Action == ActionReplace {
		console.Warningf("replacing existing %s", plan.Destination)
		logger.Debug().Str("destination", plan.Destination).Msg("removing existing destination")
		if err := os.RemoveAll(plan.Destination); err != nil {
			return nil, errors.Errorf("removing %s: %w", plan.Destination, err)
		}
	}

	res := &Result{Source: plan.Source, Destination: plan.Destination}

	opts := cp.Options{
		// follow symlinks and copy what they point to
		OnSymlink: func(src string) cp.SymlinkAction {
			return cp.Deep
		},
		PreserveTimes: true,
		PreserveOwner: false,
		Skip: func(info os.FileInfo, src, dest string) (bool, error) {
			rel, err := filepath.Rel(plan.Source, src)
			if err != nil {
				return false, errors.Errorf("relative path of %s: %w", src, err)
			}
			if rel == "." {
				return false, nil
			}
			rel = filepath.ToSlash(rel)

			kind := "file"
			if info.IsDir() {
				kind = "dir"
			}

			if pattern, ok := matchIgnore(plan.Ignore, rel); ok {
				res.Skipped = append(res.Skipped, rel)
				console.LogFileOperation(ctx, log.FileOperation{
					Path:      rel,
					Kind:      kind,
					Status:    "ignored (" + pattern + ")",
					IsSkipped: true,
				})
				return true, nil
			}

			if info.IsDir() {
				res.Dirs++
			} else {
				res.Files++
			}
			console.LogFileOperation(ctx, log.FileOperation{
				Path:     rel,
				Kind:     kind,
				Status:   "copied",
				IsCopied: true,
			})
			return false, nil
		},
	}

	if err := cp.Copy(plan.Source, plan.Destination, opts); err != nil {
		return nil, errors.Errorf("copying %s to %s: %w", plan.Source, plan.Destination, err)
	}

	console.Infof("copied %d files in %d directories, %d ignored", res.Files, res.Dirs, len(res.Skipped))

	return res, nil
}

// matchIgnore returns the first pattern matching the slash separated relative path
func matchIgnore(patterns []string, rel string) (string, bool) {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return pattern, true
		}
	}
	return "", false
}

// 🚀 Run plans and executes a deployment
func Run(ctx context.Context, opts Options) (*Result, error) {
	plan, err := NewPlan(ctx, opts)
	if err != nil {
		return nil, err
	}

	res, err := Execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).Successf("%s deployed to %s", res.Source, res.Destination)

	return res, nil
}
