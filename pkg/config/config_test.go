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
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "little_deploy.cfg")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err, "writing config file should succeed")
	return path
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestLoad(t *testing.T) {
	ctx := testContext(t)

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "nope.cfg"))
		require.Error(t, err, "Load should fail for a missing file")
		assert.True(t, errors.Is(err, ErrMissingConfig), "error should be ErrMissingConfig, got %v", err)
	})

	t.Run("duplicate_option", func(t *testing.T) {
		path := writeConfig(t, `
[myproj]
docs = /srv/docs
cov = /srv/cov
docs = /srv/other
`)
		_, err := Load(ctx, path)
		require.Error(t, err, "a repeated option should be rejected")
		assert.True(t, errors.Is(err, ErrDuplicateOption), "error should be ErrDuplicateOption, got %v", err)
		assert.Contains(t, err.Error(), `"docs"`)
	})

	t.Run("duplicate_option_same_value_other_case", func(t *testing.T) {
		path := writeConfig(t, `
[myproj]
docs = /srv/docs
DOCS = /srv/docs
`)
		_, err := Load(ctx, path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateOption), "error should be ErrDuplicateOption, got %v", err)
	})

	t.Run("same_option_in_different_sections", func(t *testing.T) {
		path := writeConfig(t, `
[alpha]
docs = /srv/alpha

[beta]
docs = /srv/beta
`)
		_, err := Load(ctx, path)
		require.NoError(t, err, "options are only duplicates within a section")
	})

	t.Run("projects", func(t *testing.T) {
		path := writeConfig(t, `
[DEFAULT]
root = /srv

[alpha]
docs = ${root}/alpha

[beta]
cov = /tmp/beta
`)
		f, err := Load(ctx, path)
		require.NoError(t, err, "Load should succeed")
		assert.Equal(t, path, f.Path())
		assert.ElementsMatch(t, []string{"alpha", "beta"}, f.Projects(), "DEFAULT is not a project")
	})

	t.Run("tilde_expansion", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		homedir.DisableCache = true
		t.Cleanup(func() { homedir.DisableCache = false })
		require.NoError(t, os.WriteFile(filepath.Join(home, "deploy.cfg"), []byte("[p]\nx = y\n"), 0644))

		f, err := Load(ctx, "~/deploy.cfg")
		require.NoError(t, err, "Load should expand ~")
		assert.Equal(t, filepath.Join(home, "deploy.cfg"), f.Path())
	})
}

func TestProject(t *testing.T) {
	ctx := testContext(t)
	path := writeConfig(t, `
[DEFAULT]
overwrite_dev = no

[myproj]
Docs = /srv/docs/{name}/{version}
cov = /srv/docs/{name}-{type_}
overwrite_releases = yes
broken = maybe

[other]
pkg_name = other-pkg
docs = /srv/other
`)
	f, err := Load(ctx, path)
	require.NoError(t, err, "Load should succeed")

	t.Run("missing_project", func(t *testing.T) {
		_, err := f.Project("nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingProject), "error should be ErrMissingProject, got %v", err)
		assert.Contains(t, err.Error(), "configured: myproj, other", "error should list the known projects")
	})

	t.Run("default_is_not_a_project", func(t *testing.T) {
		_, err := f.Project("DEFAULT")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingProject))
	})

	proj, err := f.Project("myproj")
	require.NoError(t, err)
	assert.Equal(t, "myproj", proj.Name())

	t.Run("keys_are_case_insensitive", func(t *testing.T) {
		val, err := proj.Get("docs")
		require.NoError(t, err)
		assert.Equal(t, "/srv/docs/{name}/{version}", val)

		val, err = proj.Get("DOCS")
		require.NoError(t, err)
		assert.Equal(t, "/srv/docs/{name}/{version}", val)
	})

	t.Run("missing_option", func(t *testing.T) {
		_, err := proj.Get("coverage")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingOption), "error should be ErrMissingOption, got %v", err)
		assert.False(t, proj.Has("coverage"))
	})

	t.Run("bool_values", func(t *testing.T) {
		got, err := proj.Bool(KeyOverwriteReleases, false)
		require.NoError(t, err)
		assert.True(t, got, "explicit yes")

		got, err = proj.Bool(KeyOverwriteDev, true)
		require.NoError(t, err)
		assert.False(t, got, "DEFAULT fallback should apply")

		got, err = proj.Bool("unset", true)
		require.NoError(t, err)
		assert.True(t, got, "default should be returned when unset")

		_, err = proj.Bool("broken", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidBool))
	})

	t.Run("inject_package_name", func(t *testing.T) {
		require.NoError(t, proj.InjectPackageName())
		val, err := proj.Get(KeyPackageName)
		require.NoError(t, err)
		assert.Equal(t, "myproj", val)

		other, err := f.Project("other")
		require.NoError(t, err)
		require.NoError(t, other.InjectPackageName())
		val, err = other.Get(KeyPackageName)
		require.NoError(t, err)
		assert.Equal(t, "other-pkg", val, "configured pkg_name should be kept")
	})

	t.Run("set_does_not_touch_disk", func(t *testing.T) {
		before, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, proj.Set("extra", "value"))
		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestCheckType(t *testing.T) {
	tests := []struct {
		typ     string
		wantErr bool
	}{
		{typ: "docs"},
		{typ: "cov"},
		{typ: "pkg_name", wantErr: true},
		{typ: "overwrite_releases", wantErr: true},
		{typ: "overwrite_dev", wantErr: true},
		{typ: "version_dev", wantErr: true},
		{typ: "PKG_NAME", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			err := CheckType(tt.typ)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrReservedType))
			assert.Contains(t, err.Error(), tt.typ)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultFileName, filepath.Base(DefaultPath()))
}
