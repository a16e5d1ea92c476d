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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/little-deploy/pkg/config"
	"github.com/walteh/little-deploy/pkg/template"
	"github.com/walteh/little-deploy/pkg/version"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrSourceNotDir        = errors.Base("source is not a directory")
	ErrDestinationExists   = errors.Base("destination already exists and may not be overwritten")
	ErrDestinationNotDir   = errors.Base("destination exists and is not a directory")
	ErrDestinationInSource = errors.Base("destination is inside the source directory")
	ErrSourceInDestination = errors.Base("source is inside the destination directory")
	ErrInvalidIgnore       = errors.Base("invalid ignore pattern")
)

// 🔧 Options are the parameters of one deployment
type Options struct {
	Project    string
	Type       string
	Source     string         // directory to copy from
	ConfigFile string         // path of the configuration file
	Lookup     version.Lookup // only used for version-aware destinations
	Ignore     []string       // doublestar patterns relative to Source
}

// 📊 DestinationState is what was found at the destination path
type DestinationState string

const (
	DestinationAbsent DestinationState = "absent"
	DestinationDir    DestinationState = "directory"
)

// 🎬 Action is what Execute will do to the destination
type Action string

const (
	ActionCreate  Action = "create"
	ActionReplace Action = "replace"
)

// 📋 Plan is a fully resolved deployment. Building it never touches the filesystem
// beyond reading the configuration and inspecting paths.
type Plan struct {
	Project        string           `yaml:"project"`
	Type           string           `yaml:"type"`
	ConfigFile     string           `yaml:"config_file"`
	Source         string           `yaml:"source"`
	Template       string           `yaml:"template"`
	Version        string           `yaml:"version,omitempty"`
	VersionKind    string           `yaml:"version_kind,omitempty"`
	AllowOverwrite bool             `yaml:"allow_overwrite"`
	Destination    string           `yaml:"destination"`
	State          DestinationState `yaml:"state"`
	Action         Action           `yaml:"action"`
	Ignore         []string         `yaml:"ignore,omitempty"`
}

// 🎯 NewPlan resolves the destination for opts and decides what to do with it.
//
// Every configuration, template and destination conflict error is returned from here,
// before anything is removed or copied.
func NewPlan(ctx context.Context, opts Options) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	// Reserved names are rejected before the configuration is read
	if err := config.CheckType(opts.Type); err != nil {
		return nil, err
	}

	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("%w: %q", ErrInvalidIgnore, pattern)
		}
	}

	cfg, err := config.Load(ctx, opts.ConfigFile)
	if err != nil {
		return nil, errors.Errorf("loading configuration: %w", err)
	}

	proj, err := cfg.Project(opts.Project)
	if err != nil {
		return nil, err
	}

	if err := proj.InjectPackageName(); err != nil {
		return nil, errors.Errorf("injecting package name: %w", err)
	}

	tmpl, err := proj.Get(opts.Type)
	if err != nil {
		return nil, err
	}

	res, err := version.Resolve(ctx, tmpl, proj, opts.Lookup)
	if err != nil {
		return nil, errors.Errorf("resolving version: %w", err)
	}

	vars := map[string]string{
		"name":    opts.Project,
		"project": opts.Project,
		"type_":   opts.Type,
		"type":    opts.Type,
	}
	if res.Aware {
		vars[version.PlaceholderName] = res.Version
	}

	dest, err := template.Expand(tmpl, vars)
	if err != nil {
		return nil, errors.Errorf("creating the target directory: %w", err)
	}

	plan := &Plan{
		Project:        opts.Project,
		Type:           opts.Type,
		ConfigFile:     cfg.Path(),
		Source:         filepath.Clean(opts.Source),
		Template:       tmpl,
		Version:        res.Version,
		AllowOverwrite: res.AllowOverwrite,
		Destination:    filepath.Clean(dest),
		Ignore:         opts.Ignore,
	}
	if res.Info != nil {
		plan.VersionKind = res.Info.Kind.String()
	}

	if err := checkSource(plan.Source, plan.Destination); err != nil {
		return nil, err
	}

	plan.State, err = inspectDestination(plan.Destination)
	if err != nil {
		return nil, err
	}

	switch plan.State {
	case DestinationAbsent:
		plan.Action = ActionCreate
	case DestinationDir:
		if !plan.AllowOverwrite {
			return nil, errors.Errorf("%w: %s", ErrDestinationExists, plan.Destination)
		}
		plan.Action = ActionReplace
	}

	logger.Debug().
		Str("destination", plan.Destination).
		Str("state", string(plan.State)).
		Str("action", string(plan.Action)).
		Msg("planned deployment")

	return plan, nil
}

// checkSource makes sure the source is a directory and that source and destination do not nest
func checkSource(source, dest string) error {
	info, err := os.Stat(source)
	if err != nil {
		return errors.Errorf("%w: %s: %s", ErrSourceNotDir, source, err.Error())
	}
	if !info.IsDir() {
		return errors.Errorf("%w: %s", ErrSourceNotDir, source)
	}

	absSource, err := filepath.Abs(source)
	if err != nil {
		return errors.Errorf("resolving source path: %w", err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return errors.Errorf("resolving destination path: %w", err)
	}
	if within(absSource, absDest) {
		return errors.Errorf("%w: %s is inside %s", ErrDestinationInSource, dest, source)
	}
	// replacing the destination would remove the source before it is copied
	if within(absDest, absSource) {
		return errors.Errorf("%w: %s is inside %s", ErrSourceInDestination, source, dest)
	}

	return nil
}

// within reports whether path is dir or below it. Both must be absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// inspectDestination reports what lives at dest. Symlinks are not followed.
func inspectDestination(dest string) (DestinationState, error) {
	info, err := os.Lstat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return DestinationAbsent, nil
	}
	if err != nil {
		return "", errors.Errorf("inspecting destination %s: %w", dest, err)
	}
	if !info.IsDir() {
		return "", errors.Errorf("%w: %s, remove it manually or adapt the configuration file", ErrDestinationNotDir, dest)
	}
	return DestinationDir, nil
}
