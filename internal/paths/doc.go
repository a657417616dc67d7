// Package paths centralizes every file system location mcpsel touches: the
// user and project level Claude configuration files, the machine-wide managed
// (enterprise) files, the plugin marketplace tree, and mcpsel's own XDG
// config and backup directories.
//
// All functions return empty strings rather than erroring when a base
// directory cannot be determined; callers treat an empty path as "source does
// not exist".
package paths
