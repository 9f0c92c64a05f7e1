// Command cachedb inspects and configures the cache database used by
// rbx-extract.
//
// Usage:
//
//	cachedb <command> [args]
//
// Commands:
//
//	status      Resolve the database the way rbx-extract does, without
//	            prompting, and print its state, location, size and number
//	            of cached assets.
//
//	path        Print the database path stored in the settings file.
//
//	set-path    Validate a database file, store its path in the settings
//	            file and check that it opens.
//
//	reconnect   Close the database and resolve it again from the stored
//	            path and the default locations.
//
//	reset-path  Forget the stored path so auto-detection is used again.
//
// Environment:
//
//	RBX_EXTRACT_CONFIG - Settings file (default: <user config dir>/rbx-extract/config.yaml)
package main
