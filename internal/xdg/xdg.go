// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg provides XDG Base Directory paths for authstore.
package xdg

import "path/filepath"

const appName = "authstore"

// ConfigFileName is the name of the config file inside ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for authstore.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config. Returns "" when
// neither XDG_CONFIG_HOME nor HOME is set.
func ConfigDir(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		home := getenv("HOME")
		if home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path, or "" if ConfigDir is
// unknown.
func ConfigFile(getenv func(string) string) string {
	dir := ConfigDir(getenv)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}
