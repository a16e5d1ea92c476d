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

package main

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/walteh/little-deploy/pkg/config"
	"github.com/walteh/little-deploy/pkg/deploy"
	"github.com/walteh/little-deploy/pkg/log"
	"github.com/walteh/little-deploy/pkg/version"
	"gitlab.com/tozd/go/errors"
)

// envPrefix is prepended to flag names to read them from the environment,
// e.g. LITTLE_DEPLOY_CONFIG_FILE
const envPrefix = "LITTLE_DEPLOY"

const description = `Deploy the documentation or coverage report to some directory, removing
first the content of the said directory.

The target directory is given by the <type> option of the [<project>] section of
the configuration file. It can use the placeholders {name} (or {project}),
{type_} (or {type}) and {version}. If the file, section or option do not exist,
the deployment is aborted.

When the target contains {version}, the version of the package named by the
pkg_name option (default: the project name) is read from --pkg-version or from the
git tags of the repository containing <deploy_from>. Existing release directories
are only replaced when overwrite_releases is true; existing dev directories are
replaced unless overwrite_dev is false. Use {{version}} or $${version} to write
a literal {version}.`

// 🔧 rootOpts are the values of the root command flags
type rootOpts struct {
	configFile string
	pkgVersion string
	ignore     []string
	dryRun     bool
	output     string
	debug      bool
}

// newRootCmd builds the little-deploy command writing user output to stdout
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "little-deploy <project> <type> <deploy_from>",
		Short:         "Copy a directory tree to the destination configured for a project",
		Long:          description,
		Args:          cobra.ExactArgs(3),
		Version:       GetVersionInfo().Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rootOpts{
				configFile: v.GetString("config-file"),
				pkgVersion: v.GetString("pkg-version"),
				ignore:     v.GetStringSlice("ignore"),
				dryRun:     v.GetBool("dry-run"),
				output:     v.GetString("output"),
				debug:      v.GetBool("debug"),
			}

			ctx := setupLogging(cmd.Context(), stdout, stderr, opts.debug)

			return run(ctx, stdout, opts, args[0], args[1], args[2])
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(FormatVersion())

	addRootFlags(cmd)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(errors.Errorf("binding flags: %w", err))
	}

	return cmd
}

// addRootFlags adds the flags of the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config-file", "c", config.DefaultPath(), "name of the configuration file")
	cmd.Flags().String("pkg-version", "", "package version to use for {version} instead of reading git tags")
	cmd.Flags().StringSlice("ignore", nil, "glob of files or directories to leave out, relative to <deploy_from> (repeatable)")
	cmd.Flags().Bool("dry-run", false, "print the deployment plan without touching the destination")
	cmd.Flags().StringP("output", "o", string(deploy.FormatTable), "plan format for --dry-run: table or yaml")
	cmd.Flags().BoolP("debug", "d", false, "enable debug logging")
}

// run plans the deployment and executes it unless this is a dry run
func run(ctx context.Context, stdout io.Writer, opts rootOpts, project, typ, source string) error {
	var lookup version.Lookup = version.Git{Dir: source}
	if opts.pkgVersion != "" {
		lookup = version.Static{Version: opts.pkgVersion}
	}

	dopts := deploy.Options{
		Project:    project,
		Type:       typ,
		Source:     source,
		ConfigFile: opts.configFile,
		Lookup:     lookup,
		Ignore:     opts.ignore,
	}

	if opts.dryRun {
		plan, err := deploy.NewPlan(ctx, dopts)
		if err != nil {
			return err
		}
		return plan.Render(stdout, deploy.Format(opts.output))
	}

	log.FromContext(ctx).Header("deploying " + project + " " + typ)

	_, err := deploy.Run(ctx, dopts)
	return err
}

// setupLogging puts a zerolog logger and a console logger in the context.
// Structured logs only show up with --debug, the console always does.
func setupLogging(ctx context.Context, stdout, stderr io.Writer, debug bool) context.Context {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger().Level(zerolog.Disabled)
	if debug {
		zlog = zlog.Level(zerolog.DebugLevel)
	}

	ctx = zlog.WithContext(ctx)
	return log.NewContext(ctx, log.New(stdout, zlog))
}
