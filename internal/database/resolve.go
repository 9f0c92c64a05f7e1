package database

import (
	"context"
	"errors"
	"fmt"

	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/source"
)

// DefaultCandidates are the database locations of the Windows client and the
// Sober Linux client.
var DefaultCandidates = []string{
	`%localappdata%\Roblox\rbx-storage.db`,
	"~/.var/app/org.vinegarhq.Sober/data/sober/appData/rbx-storage.db",
}

// resolveLocked tries the configured path, then each candidate, opening the
// first that is an existing regular file. When none opens it asks the
// prompter for a path, persisting an accepted one, and tries again. It
// returns source.ErrNotConfigured once the operator declines.
func (s *Source) resolveLocked(ctx context.Context) error {
	for {
		errs := s.tryCandidatesLocked(ctx)
		if errs == nil {
			return nil
		}

		path, ok := s.askOperator()
		if !ok {
			logging.Error("Database detection failed: %v", errs)
			s.setStateLocked(StateClosed)
			return fmt.Errorf("%w: %w", source.ErrNotConfigured, errs)
		}

		resolved := filesystem.ResolvePath(path)
		if s.settings != nil {
			if err := s.settings.Set(SettingDatabasePath, resolved); err != nil {
				logging.Warn("Failed to save database path: %v", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// tryCandidatesLocked returns nil once a connection is open, or the joined
// failure of every candidate.
func (s *Source) tryCandidatesLocked(ctx context.Context) error {
	var errs []error

	var candidates []string
	if s.settings != nil {
		if configured := s.settings.GetString(SettingDatabasePath); configured != "" {
			logging.Debug("Trying user-specified database path: %s", configured)
			candidates = append(candidates, configured)
		}
	}
	candidates = append(candidates, s.candidates...)

	for _, c := range candidates {
		path := filesystem.ResolvePath(c)
		if err := filesystem.ValidateFile(path); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.openLocked(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		return nil
	}

	if len(errs) == 0 {
		return errors.New("no database candidates")
	}
	return errors.Join(errs...)
}

func (s *Source) askOperator() (string, bool) {
	if s.prompter == nil {
		return "", false
	}

	s.prompter.Alert(s.locale.Get(locale.ErrorSQLDetectionTitle), s.locale.Get(locale.ErrorSQLDetectionText))
	if !s.prompter.Confirm(s.locale.Get(locale.ConfirmCustomSQLTitle), s.locale.Get(locale.ConfirmCustomSQLText)) {
		return "", false
	}
	return s.prompter.AskPath(s.locale.Get(locale.EnterDatabasePath))
}
