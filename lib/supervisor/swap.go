// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openmined/sbenv/lib/atomicfile"
	"github.com/openmined/sbenv/lib/identity"
)

// The daemon is known to consult a fixed global config location for
// some operations, ignoring the --config argument it was given. The
// workaround: relocate any real global config aside, place a copy of
// the environment's config in the slot for the spawn window, and put
// everything back afterwards. The window is a critical section: the
// original global file must be restored on every exit path, including
// error returns, and a journal survives crashes mid-swap so the next
// run can repair the slot.

const (
	globalAsideSuffix = ".sbenv-aside"
	localBackupSuffix = ".sbenv-swap-backup"
)

// swapJournal is persisted before the slot is touched and removed
// after a clean restore. Its presence means a swap may be half done.
type swapJournal struct {
	GlobalPath    string    `json:"global_path"`
	AsidePath     string    `json:"aside_path"`
	LocalPath     string    `json:"local_path"`
	BackupPath    string    `json:"backup_path"`
	StartedAt     time.Time `json:"started_at"`
	SupervisorPID int       `json:"supervisor_pid"`
}

// swapGuard is the scoped hold on the global config slot. A guard is
// always returned, inactive when no swap was needed; release is
// idempotent so it can be both deferred and called explicitly.
type swapGuard struct {
	supervisor *Supervisor
	active     bool
	released   bool
	globalPath string
	asidePath  string
	localPath  string
	backupPath string
}

// acquireGlobalSlot prepares the global config slot for a spawn. The
// swap happens only when a file already occupies the slot and is not
// the environment's own config: an empty slot cannot mislead the
// daemon, and swapping a file with itself would destroy it.
func (s *Supervisor) acquireGlobalSlot(localConfigPath string) (*swapGuard, error) {
	guard := &swapGuard{supervisor: s}
	if s.globalConfigPath == "" {
		return guard, nil
	}

	// A leftover journal means a previous swap never finished; the
	// slot must be repaired before it can be trusted.
	if err := s.RepairInterruptedSwap(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.globalConfigPath)
	if os.IsNotExist(err) {
		return guard, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking global config slot %s: %w", s.globalConfigPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("global config slot %s is a directory", s.globalConfigPath)
	}
	if identity.Canonicalize(s.globalConfigPath) == identity.Canonicalize(localConfigPath) {
		return guard, nil
	}

	localContent, err := os.ReadFile(localConfigPath)
	if err != nil {
		return nil, fmt.Errorf("backing up environment config before swap: %w", err)
	}

	guard.globalPath = s.globalConfigPath
	guard.asidePath = s.globalConfigPath + globalAsideSuffix
	guard.localPath = localConfigPath
	guard.backupPath = localConfigPath + localBackupSuffix

	if err := atomicfile.WriteFile(guard.backupPath, localContent, 0600); err != nil {
		return nil, fmt.Errorf("writing swap backup %s: %w", guard.backupPath, err)
	}
	if err := s.writeSwapJournal(swapJournal{
		GlobalPath:    guard.globalPath,
		AsidePath:     guard.asidePath,
		LocalPath:     guard.localPath,
		BackupPath:    guard.backupPath,
		StartedAt:     s.clk.Now(),
		SupervisorPID: os.Getpid(),
	}); err != nil {
		os.Remove(guard.backupPath)
		return nil, err
	}

	if err := os.Rename(guard.globalPath, guard.asidePath); err != nil {
		s.clearSwapJournal()
		os.Remove(guard.backupPath)
		return nil, fmt.Errorf("relocating global config aside: %w", err)
	}
	if err := atomicfile.WriteFile(guard.globalPath, localContent, 0600); err != nil {
		// Put the original straight back; the swap never happened.
		restoreErr := os.Rename(guard.asidePath, guard.globalPath)
		s.clearSwapJournal()
		os.Remove(guard.backupPath)
		if restoreErr != nil {
			return nil, errors.Join(
				fmt.Errorf("placing environment config in global slot: %w", err),
				fmt.Errorf("restoring global config after failed swap: %w", restoreErr),
			)
		}
		return nil, fmt.Errorf("placing environment config in global slot: %w", err)
	}

	guard.active = true
	s.logger.Debug("global config slot swapped for spawn window",
		"global", guard.globalPath,
		"aside", guard.asidePath,
	)
	return guard, nil
}

// release puts the world back: the original global config returns to
// its slot, and the environment's config is restored from the
// pre-swap backup, since the daemon may have rewritten it during the
// window. Safe to call more than once.
func (guard *swapGuard) release() error {
	if guard.released {
		return nil
	}
	guard.released = true
	if !guard.active {
		return nil
	}

	s := guard.supervisor
	var failures []error

	if err := os.Rename(guard.asidePath, guard.globalPath); err != nil {
		failures = append(failures, fmt.Errorf("restoring global config from %s: %w", guard.asidePath, err))
	}

	if content, err := os.ReadFile(guard.backupPath); err != nil {
		failures = append(failures, fmt.Errorf("reading swap backup %s: %w", guard.backupPath, err))
	} else if err := atomicfile.WriteFile(guard.localPath, content, 0600); err != nil {
		failures = append(failures, fmt.Errorf("restoring environment config %s: %w", guard.localPath, err))
	} else if err := os.Remove(guard.backupPath); err != nil && !os.IsNotExist(err) {
		failures = append(failures, fmt.Errorf("removing swap backup %s: %w", guard.backupPath, err))
	}

	if len(failures) > 0 {
		// Keep the journal: the next run can still repair whatever
		// this release could not.
		return errors.Join(failures...)
	}
	s.clearSwapJournal()
	s.logger.Debug("global config slot restored", "global", guard.globalPath)
	return nil
}

// RepairInterruptedSwap finishes the restore a crashed run left
// behind. No journal, nothing to do.
func (s *Supervisor) RepairInterruptedSwap() error {
	if s.swapJournalPath == "" {
		return nil
	}
	content, err := os.ReadFile(s.swapJournalPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading swap journal %s: %w", s.swapJournalPath, err)
	}
	var journal swapJournal
	if err := json.Unmarshal(content, &journal); err != nil {
		return fmt.Errorf("parsing swap journal %s: %w", s.swapJournalPath, err)
	}

	s.logger.Warn("repairing interrupted global config swap",
		"global", journal.GlobalPath,
		"started_at", journal.StartedAt,
	)

	var failures []error
	if _, err := os.Stat(journal.AsidePath); err == nil {
		if err := os.Rename(journal.AsidePath, journal.GlobalPath); err != nil {
			failures = append(failures, fmt.Errorf("restoring global config: %w", err))
		}
	}
	if content, err := os.ReadFile(journal.BackupPath); err == nil {
		if err := atomicfile.WriteFile(journal.LocalPath, content, 0600); err != nil {
			failures = append(failures, fmt.Errorf("restoring environment config: %w", err))
		} else if err := os.Remove(journal.BackupPath); err != nil && !os.IsNotExist(err) {
			failures = append(failures, fmt.Errorf("removing swap backup: %w", err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("repairing interrupted swap: %w", errors.Join(failures...))
	}
	s.clearSwapJournal()
	return nil
}

func (s *Supervisor) writeSwapJournal(journal swapJournal) error {
	if s.swapJournalPath == "" {
		return nil
	}
	encoded, err := json.MarshalIndent(journal, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding swap journal: %w", err)
	}
	if err := atomicfile.WriteFile(s.swapJournalPath, append(encoded, '\n'), 0644); err != nil {
		return fmt.Errorf("writing swap journal %s: %w", s.swapJournalPath, err)
	}
	return nil
}

func (s *Supervisor) clearSwapJournal() {
	if s.swapJournalPath == "" {
		return
	}
	if err := os.Remove(s.swapJournalPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("removing swap journal failed", "path", s.swapJournalPath, "error", err)
	}
}
