// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package constant defines shared naming and sizing constants used throughout
// dataserve, ensuring consistent values across the application.
package constant

const (
	// AppName is the canonical application name used in logs and version output.
	AppName = "dataserve"

	// DefaultHost is the interface the HTTP server binds to by default.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the TCP port the HTTP server binds to by default.
	DefaultPort = 8001

	// DatabaseFileSuffix is the filename suffix that marks a file directly
	// inside the config directory as a database.
	DatabaseFileSuffix = ".db"

	// PluginFileSuffix is the filename suffix a plugin module candidate must
	// carry to be discovered inside the plugins directory.
	PluginFileSuffix = ".py"

	// PluginsDirName, TemplatesDirName and StaticDirName are the
	// case-sensitive names of the recognized config subdirectories.
	PluginsDirName   = "plugins"
	TemplatesDirName = "templates"
	StaticDirName    = "static"

	// InspectDataFileName is the side-channel file recording precomputed
	// metadata for immutable databases.
	InspectDataFileName = "inspect-data.json"

	// DeprecatedConfigFileName is the legacy settings filename that aborts
	// startup when present.
	DeprecatedConfigFileName = "config.json"

	// MaxDocumentBytes caps the size of a settings/metadata/inspect document
	// read into memory (8MB).
	MaxDocumentBytes = 8 * 1024 * 1024
)
