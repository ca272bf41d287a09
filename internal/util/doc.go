// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the streamchat packages.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - TruncateWidth: Display-width truncation for terminal columns
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	label := util.TruncateWidth(modelName, 20)
package util
