// Package session implements the two-phase capture protocol that pairs a
// command's start and completion across independent shell invocations.
package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spideyz0r/corvus/pkg/storage"
)

// Pending sessions older than this are eligible for opportunistic cleanup.
const reapAge = 7 * 24 * time.Hour

// Tracker owns the in-flight pending sessions. All state lives in the
// store's pending_sessions table: the start half and the end half of a
// capture are separate processes coordinating only through durable state.
type Tracker struct {
	db *storage.DB

	ignore []*regexp.Regexp
	now    func() time.Time
}

// New creates a Tracker over the given store. ignorePatterns are regexes for
// commands that should never be recorded; invalid patterns are dropped.
func New(db *storage.DB, ignorePatterns []string) *Tracker {
	t := &Tracker{
		db:  db,
		now: time.Now,
	}
	for _, pat := range ignorePatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			continue
		}
		t.ignore = append(t.ignore, re)
	}
	return t
}

// Start records that command is about to execute in cwd and returns the
// opaque session id the shell must carry until the command completes.
// Ignored commands return an empty id and persist nothing.
func (t *Tracker) Start(command, cwd string) (string, error) {
	command = strings.TrimRight(command, "\n")
	if strings.TrimSpace(command) == "" {
		return "", nil
	}
	if t.ignored(command) {
		return "", nil
	}

	// Random ids: pending sessions from independent shells against the same
	// store must never collide.
	id := uuid.NewString()

	pending := &storage.PendingSession{
		SessionID: id,
		Command:   command,
		Cwd:       cwd,
		StartedAt: t.now().Unix(),
	}
	if err := t.db.PutPending(pending); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	return id, nil
}

// End finalizes the session: the pending record is consumed into a history
// entry carrying the observed exit code and the original start timestamp.
// An unknown or already-finalized id (double end, stale environment) is a
// no-op, not an error.
func (t *Tracker) End(sessionID string, exitCode int) (int64, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, false, nil
	}

	id, found, err := t.db.FinalizePending(sessionID, exitCode)
	if err != nil {
		return 0, false, fmt.Errorf("failed to end session: %w", err)
	}

	if found {
		// Abandoned sessions from dead shells accumulate slowly; sweep the
		// stale ones while we already hold a write path. Best effort.
		cutoff := t.now().Add(-reapAge).Unix()
		_, _ = t.db.ReapPending(cutoff)
	}

	return id, found, nil
}

func (t *Tracker) ignored(command string) bool {
	for _, re := range t.ignore {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}
