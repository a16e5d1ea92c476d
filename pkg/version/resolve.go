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

	"github.com/rs/zerolog"
	"github.com/walteh/little-deploy/pkg/config"
	"github.com/walteh/little-deploy/pkg/template"
	"gitlab.com/tozd/go/errors"
)

// PlaceholderName is the template placeholder that makes a destination version-aware
const PlaceholderName = "version"

// 🔧 Settings is the part of a project configuration version resolution reads
type Settings interface {
	Get(key string) (string, error)
	Has(key string) bool
	Bool(key string, def bool) (bool, error)
}

// 📊 Resolution is the outcome of resolving the version for a destination template
type Resolution struct {
	Aware          bool   // template contains an unescaped {version}
	Version        string // empty unless Aware
	Info           *Info  // looked up version, nil unless Aware
	AllowOverwrite bool
}

// 🎯 Resolve looks up the package version when the template asks for it and decides whether
// an existing destination may be replaced.
//
// Dev builds use version_dev when configured and may be overwritten unless overwrite_dev is
// false. Releases may only be overwritten when overwrite_releases is true. Templates without
// {version} never allow overwriting.
func Resolve(ctx context.Context, tmpl string, settings Settings, lookup Lookup) (*Resolution, error) {
	logger := zerolog.Ctx(ctx)

	aware, err := template.References(tmpl, PlaceholderName)
	if err != nil {
		return nil, errors.Errorf("inspecting template: %w", err)
	}
	if !aware {
		logger.Debug().Str("template", tmpl).Msg("template is not version-aware")
		return &Resolution{}, nil
	}

	if lookup == nil {
		return nil, errors.Errorf("%w: no version lookup configured", ErrNoVersion)
	}

	pkgName, err := settings.Get(config.KeyPackageName)
	if err != nil {
		return nil, errors.Errorf("reading package name: %w", err)
	}

	info, err := lookup.Lookup(ctx, pkgName)
	if err != nil {
		return nil, errors.Errorf("looking up version of %s: %w", pkgName, err)
	}

	res := &Resolution{Aware: true, Info: info}

	if info.IsDev() {
		res.Version = info.Public
		if settings.Has(config.KeyVersionDev) {
			if res.Version, err = settings.Get(config.KeyVersionDev); err != nil {
				return nil, errors.Errorf("reading %s: %w", config.KeyVersionDev, err)
			}
		}
		if res.AllowOverwrite, err = settings.Bool(config.KeyOverwriteDev, true); err != nil {
			return nil, errors.Errorf("reading %s: %w", config.KeyOverwriteDev, err)
		}
	} else {
		res.Version = info.Public
		if res.AllowOverwrite, err = settings.Bool(config.KeyOverwriteReleases, false); err != nil {
			return nil, errors.Errorf("reading %s: %w", config.KeyOverwriteReleases, err)
		}
	}

	logger.Debug().
		Str("package", pkgName).
		Str("version", res.Version).
		Stringer("kind", info.Kind).
		Bool("allow_overwrite", res.AllowOverwrite).
		Msg("resolved version")

	return res, nil
}
