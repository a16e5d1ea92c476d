/*
Package deploy copies a directory tree into the destination configured for a project.

	+-------------+     +-------------+     +-------------+
	|   config    | --> |   version   | --> |  template   |
	| (INI file)  |     | (optional)  |     | (expansion) |
	+-------------+     +-------------+     +------+------+
	                                               |
	                                        +------+------+
	                                        |    Plan     |
	                                        | (no writes) |
	                                        +------+------+
	                                               |
	                                        +------+------+
	                                        |   Execute   |
	                                        | clear, copy |
	                                        +-------------+

🎯 Purpose:
- Resolves project + type to a destination path
- Decides whether an existing destination may be replaced
- Copies the source tree into place

🔄 Destination states:

	absent                      -> create
	directory, overwrite        -> replace (remove, then copy)
	directory, no overwrite     -> ErrDestinationExists
	anything else               -> ErrDestinationNotDir

All conflicts are detected by NewPlan. Execute only fails on filesystem errors and does
not roll back a partial copy.

🔍 Example:

	res, err := deploy.Run(ctx, deploy.Options{
		Project:    "myproj",
		Type:       "docs",
		Source:     "build/html",
		ConfigFile: config.DefaultPath(),
		Lookup:     version.Git{Dir: "."},
	})
*/
package deploy
