/*
Package config reads the per-user deployment configuration.

	            +-------------------+
	            | little_deploy.cfg |
	            |   (INI sections)  |
	            +---------+---------+
	                      |
	          +-----------+-----------+
	          |                       |
	    +-----+-----+           +-----+-----+
	    |  Project  |           |  DEFAULT  |
	    | [section] |<----------| fallbacks |
	    +-----+-----+           +-----------+
	          |
	    type -> destination template

🎯 Purpose:
- Loads the INI file once per run, never writes it back
- Maps a project (section) and a type (option) to a destination template
- Holds the control options pkg_name, overwrite_releases, overwrite_dev and version_dev

🔄 Interpolation:
Values may reference other values. References are resolved when a value is read:

	[DEFAULT]
	root = /srv/docs

	[myproj]
	docs = ${root}/{name}/{version}
	cov = ${DEFAULT:root}/{name}-{type_}
	price = $$5

$$ is a literal dollar sign, ${option} reads from the same section (or DEFAULT) and
${section:option} reads from another section. Nesting is limited to MaxInterpolationDepth.

🔍 Example:

	if err := config.CheckType(typ); err != nil {
		return err
	}

	f, err := config.Load(ctx, "~/.config/little_deploy.cfg")
	if err != nil {
		return err
	}

	proj, err := f.Project("myproj")
	if err != nil {
		return err
	}

	tmpl, err := proj.Get("docs")
*/
package config
