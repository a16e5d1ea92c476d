package deploy

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🖨️ Format is an output format for a plan
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// Render writes the plan to w in the given format
func (p *Plan) Render(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		return p.renderYAML(w)
	case FormatTable, "":
		return p.renderTable(w)
	}
	return errors.Errorf("unknown output format %q", format)
}

func (p *Plan) renderYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return errors.Errorf("encoding plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return errors.Errorf("closing encoder: %w", err)
	}
	return nil
}

func (p *Plan) renderTable(w io.Writer) error {
	version := p.Version
	if version == "" {
		version = "-"
	} else if p.VersionKind != "" {
		version = fmt.Sprintf("%s (%s)", p.Version, p.VersionKind)
	}

	ignore := "-"
	if len(p.Ignore) > 0 {
		ignore = strings.Join(p.Ignore, ", ")
	}

	data := pterm.TableData{
		{"Key", "Value"},
		{"project", p.Project},
		{"type", p.Type},
		{"config", p.ConfigFile},
		{"source", p.Source},
		{"template", p.Template},
		{"version", version},
		{"overwrite", fmt.Sprintf("%t", p.AllowOverwrite)},
		{"destination", p.Destination},
		{"state", string(p.State)},
		{"action", string(p.Action)},
		{"ignore", ignore},
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering plan: %w", err)
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return errors.Errorf("writing plan: %w", err)
	}
	return nil
}
