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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	kindWidth   = 10 // Width for entry kind
	statusWidth = 15 // Width for status text
)

// 🎯 FileOperation is one entry handled during a deployment
type FileOperation struct {
	Path      string // Path relative to the source directory
	Kind      string // file / dir
	Status    string // Operation status
	IsCopied  bool   // Whether the entry was copied
	IsSkipped bool   // Whether the entry matched an ignore pattern
}

// 📦 Deployment describes the deployment being logged
type Deployment struct {
	Project     string
	Type        string
	Source      string
	Destination string
	Version     string // empty when the destination is not versioned
	Replace     bool   // whether an existing destination is removed first
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *Deployment
	entries []FileOperation
}

// 🏭 New creates a new logger writing human output to console and structured events to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context. Without one, output is discarded.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(io.Discard, *zerolog.Ctx(ctx))
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	case op.IsCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	kindColor := color.FgBlue
	if op.Kind == "dir" {
		kindColor = color.FgCyan
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, op.Kind)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogFileOperation records a file operation. Copied entries are only printed at debug level.
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, op)

	if op.IsSkipped || l.zlog.GetLevel() <= zerolog.DebugLevel {
		fmt.Fprintln(l.console, l.formatFileOperation(op))
	}

	l.zlog.Debug().
		Str("path", op.Path).
		Str("kind", op.Kind).
		Str("status", op.Status).
		Bool("is_copied", op.IsCopied).
		Bool("is_skipped", op.IsSkipped).
		Msg("file operation")
}

// 📝 StartDeployment prints the deployment header
func (l *Logger) StartDeployment(ctx context.Context, d Deployment) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &d
	l.entries = nil

	fmt.Fprintf(l.console, "[deploying %s]\n",
		color.New(color.FgCyan).Sprint(d.Destination))

	ref := d.Type
	if d.Version != "" {
		ref = d.Type + "@" + d.Version
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(d.Project),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(ref))

	l.zlog.Info().
		Str("project", d.Project).
		Str("type", d.Type).
		Str("source", d.Source).
		Str("destination", d.Destination).
		Str("version", d.Version).
		Bool("replace", d.Replace).
		Msg("starting deployment")
}

// 📝 EndDeployment logs a summary of the current deployment
func (l *Logger) EndDeployment(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	copied, skipped := 0, 0
	for _, e := range l.entries {
		switch {
		case e.IsSkipped:
			skipped++
		case e.IsCopied:
			copied++
		}
	}

	l.zlog.Info().
		Str("project", l.current.Project).
		Str("destination", l.current.Destination).
		Int("copied", copied).
		Int("skipped", skipped).
		Msg("deployment complete")

	l.current = nil
	l.entries = nil
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("little-deploy")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
