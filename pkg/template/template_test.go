package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestExpand(t *testing.T) {
	vars := map[string]string{
		"name":    "myproj",
		"type_":   "cov",
		"version": "2.1.0",
	}

	tests := []struct {
		name    string
		tmpl    string
		vars    map[string]string
		want    string
		wantErr error
	}{
		{
			name: "name_and_type",
			tmpl: "/srv/docs/{name}-{type_}",
			vars: vars,
			want: "/srv/docs/myproj-cov",
		},
		{
			name: "version",
			tmpl: "/srv/docs/{name}/{version}",
			vars: vars,
			want: "/srv/docs/myproj/2.1.0",
		},
		{
			name: "no_placeholders",
			tmpl: "/srv/static",
			vars: nil,
			want: "/srv/static",
		},
		{
			name: "doubled_braces",
			tmpl: "/srv/{{version}}/{name}",
			vars: vars,
			want: "/srv/{version}/myproj",
		},
		{
			name: "dollar_escape",
			tmpl: "/srv/${version}/{name}",
			vars: map[string]string{"name": "myproj"},
			want: "/srv/${version}/myproj",
		},
		{
			name: "dollar_elsewhere",
			tmpl: "/srv/$HOME/{name}",
			vars: vars,
			want: "/srv/$HOME/myproj",
		},
		{
			name:    "version_not_supplied",
			tmpl:    "/srv/docs/{name}/{version}",
			vars:    map[string]string{"name": "myproj"},
			wantErr: ErrUnknownPlaceholder,
		},
		{
			name:    "unknown_placeholder",
			tmpl:    "/srv/{branch}",
			vars:    vars,
			wantErr: ErrUnknownPlaceholder,
		},
		{
			name:    "unterminated",
			tmpl:    "/srv/{name",
			vars:    vars,
			wantErr: ErrMalformed,
		},
		{
			name:    "single_closing_brace",
			tmpl:    "/srv/name}",
			vars:    vars,
			wantErr: ErrMalformed,
		},
		{
			name:    "empty_placeholder",
			tmpl:    "/srv/{}",
			vars:    vars,
			wantErr: ErrMalformed,
		},
		{
			name:    "format_spec_is_not_a_name",
			tmpl:    "/srv/{name:>10}",
			vars:    vars,
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.tmpl, tt.vars)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "{name}", "no placeholder should survive expansion")
		})
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		tmpl string
		want bool
	}{
		{tmpl: "/srv/docs/{name}/{version}", want: true},
		{tmpl: "/srv/docs/{name}", want: false},
		{tmpl: "/srv/docs/{{version}}", want: false},
		{tmpl: "/srv/docs/${version}", want: false},
		{tmpl: "/srv/docs/{{version}}/{version}", want: true},
		{tmpl: "/srv/docs/${version}/{version}", want: true},
		{tmpl: "/srv/docs/{versions}", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := References(tt.tmpl, "version")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	got, err := Placeholders("{name}/{{x}}/${y}/{type_}/{version}")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "type_", "version"}, got)

	_, err = Placeholders("{oops")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
