// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the lifecycle of a chat turn.
//
// A Session holds the state the UI and the producers share: the active
// turn and its cancel function, whether a stream is running, the
// auto-scroll flag and the current Producer. Submitting while a turn is
// active acts as a stop request.
//
// # Usage
//
//	s := session.New(session.NewRemote(client, "llama3.2", "", nil), logger)
//	turn := s.Submit(ctx, "hello", sink)
//	res := turn.Wait()
package session
