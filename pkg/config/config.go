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
	"context"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/ini.v1"
)

// 📁 DefaultFileName is the name of the configuration file inside the user config directory
const DefaultFileName = "little_deploy.cfg"

// 🔑 Reserved option names. None of them can be used as a deployment type.
const (
	KeyPackageName       = "pkg_name"
	KeyOverwriteReleases = "overwrite_releases"
	KeyOverwriteDev      = "overwrite_dev"
	KeyVersionDev        = "version_dev"
)

// ReservedKeys lists the control options that live next to the type options of a project
var ReservedKeys = []string{KeyPackageName, KeyOverwriteReleases, KeyOverwriteDev, KeyVersionDev}

var (
	ErrMissingConfig   = errors.Base("missing configuration file")
	ErrMissingProject  = errors.Base("missing project")
	ErrMissingOption   = errors.Base("missing option")
	ErrReservedType    = errors.Base("reserved type name")
	ErrInvalidBool     = errors.Base("not a boolean")
	ErrDuplicateOption = errors.Base("duplicate option")
)

// 🏠 DefaultPath returns the configuration file used when none is given on the command line
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, DefaultFileName)
}

// 🚫 CheckType makes sure the type does not collide with one of the reserved options
func CheckType(typ string) error {
	for _, k := range ReservedKeys {
		if strings.EqualFold(typ, k) {
			return errors.Errorf("%w: the name %q for the type is not allowed", ErrReservedType, typ)
		}
	}
	return nil
}

// 📚 File is a loaded configuration file
type File struct {
	path string
	ini  *ini.File
}

// 🎯 Load reads the configuration file at path. A leading ~ is expanded to the home directory.
func Load(ctx context.Context, path string) (*File, error) {
	logger := zerolog.Ctx(ctx)

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Errorf("expanding config path %q: %w", path, err)
	}

	logger.Debug().Str("path", expanded).Msg("loading configuration")

	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
		// keep repeated keys around so they can be rejected below
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
	}, expanded)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %s", ErrMissingConfig, expanded, err.Error())
	}

	if err := checkDuplicates(f); err != nil {
		return nil, errors.Errorf("reading %s: %w", expanded, err)
	}

	return &File{path: expanded, ini: f}, nil
}

// checkDuplicates rejects an option set twice in the same section
func checkDuplicates(f *ini.File) error {
	for _, sec := range f.Sections() {
		for _, k := range sec.Keys() {
			if n := len(k.ValueWithShadows()); n > 1 {
				return errors.Errorf("%w %q in section %q (set %d times)", ErrDuplicateOption, k.Name(), sec.Name(), n)
			}
		}
	}
	return nil
}

// Path returns the expanded path the file was loaded from
func (f *File) Path() string {
	return f.path
}

// 📋 Projects returns the names of all project sections
func (f *File) Projects() []string {
	var names []string
	for _, name := range f.ini.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}
	return names
}

// 🔍 Project returns the section for the named project
func (f *File) Project(name string) (*Project, error) {
	if name == ini.DefaultSection || !f.hasSection(name) {
		return nil, errors.Errorf("%w %q (configured: %s)", ErrMissingProject, name, strings.Join(f.Projects(), ", "))
	}
	sec, err := f.ini.GetSection(name)
	if err != nil {
		return nil, errors.Errorf("%w %q: %s", ErrMissingProject, name, err.Error())
	}
	return &Project{name: name, file: f, section: sec}, nil
}

func (f *File) hasSection(name string) bool {
	for _, s := range f.ini.SectionStrings() {
		if s == name {
			return true
		}
	}
	return false
}

// raw looks up a key in a section without interpolation, falling back to DEFAULT
func (f *File) raw(section, key string) (string, bool) {
	key = strings.ToLower(key)
	if section != ini.DefaultSection && !f.hasSection(section) {
		return "", false
	}
	if sec, err := f.ini.GetSection(section); err == nil {
		for _, k := range sec.Keys() {
			if k.Name() == key {
				return k.Value(), true
			}
		}
	}
	if section == ini.DefaultSection {
		return "", false
	}
	return f.raw(ini.DefaultSection, key)
}

// 📦 Project is the configuration of one deployable project
type Project struct {
	name    string
	file    *File
	section *ini.Section
}

// Name returns the section name
func (p *Project) Name() string {
	return p.name
}

// Has reports whether the option is set in the section or in DEFAULT
func (p *Project) Has(key string) bool {
	_, ok := p.file.raw(p.name, key)
	return ok
}

// 🔑 Get returns the interpolated value of an option
func (p *Project) Get(key string) (string, error) {
	raw, ok := p.file.raw(p.name, key)
	if !ok {
		return "", errors.Errorf("%w %q in project %q", ErrMissingOption, key, p.name)
	}
	val, err := p.file.interpolate(p.name, key, raw, 1)
	if err != nil {
		return "", errors.Errorf("interpolating %s:%s: %w", p.name, key, err)
	}
	return val, nil
}

// ✏️ Set stores a value in the in-memory section. The file on disk is never written.
func (p *Project) Set(key, value string) error {
	if _, err := p.section.NewKey(key, value); err != nil {
		return errors.Errorf("setting %s:%s: %w", p.name, key, err)
	}
	return nil
}

// 🔘 Bool parses an option as a boolean, returning def when the option is not set
func (p *Project) Bool(key string, def bool) (bool, error) {
	if !p.Has(key) {
		return def, nil
	}
	val, err := p.Get(key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	}
	return false, errors.Errorf("%w: %s:%s = %q", ErrInvalidBool, p.name, key, val)
}

// 📦 InjectPackageName sets pkg_name to the project name unless it is already configured
func (p *Project) InjectPackageName() error {
	if p.Has(KeyPackageName) {
		return nil
	}
	return p.Set(KeyPackageName, p.name)
}
