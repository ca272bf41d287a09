// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager holds the cancel function of the active turn.
//
// The UI loop calls stop while the producer goroutine calls clear when the
// turn ends, so every access goes through the mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	turnID     string
}

// start records fn as the cancel function for turnID. It returns false
// without storing anything if another turn is active.
func (cm *cancelManager) start(turnID string, fn context.CancelFunc) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		return false
	}
	cm.cancelFunc = fn
	cm.turnID = turnID
	return true
}

// stop cancels the active turn. The turn stays registered until its
// goroutine calls clear. Safe to call multiple times or with no turn active.
func (cm *cancelManager) stop() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	return true
}

// clear cancels and forgets turnID's context if it is still the active turn.
func (cm *cancelManager) clear(turnID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil && cm.turnID == turnID {
		cm.cancelFunc() // release the context's resources
		cm.cancelFunc = nil
		cm.turnID = ""
	}
}

// active returns the active turn's ID, or "" when idle.
func (cm *cancelManager) active() string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.turnID
}
