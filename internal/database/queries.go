package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/classify"
	"rbx-extract/internal/compression"
	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/source"
)

// StorageFolder is the directory next to the database holding large entries.
const StorageFolder = "rbx-storage"

// listQuery returns a content prefix for ordinary rows and the whole content
// for zstd-compressed rows, which cannot be decoded from a prefix.
const listQuery = `
	SELECT id, size, ttl,
		CASE WHEN substr(content, 1, 4) = X'28B52FFD'
			THEN content
			ELSE substr(content, 1, 4096)
		END
	FROM files`

// decodeID converts a hex asset name to the row id.
func decodeID(name string) ([]byte, error) {
	id, err := hex.DecodeString(name)
	if err != nil || len(id) == 0 {
		return nil, fmt.Errorf("%w: invalid database id %q", source.ErrNotFound, name)
	}
	return id, nil
}

// ttlTime converts the ttl column, a Unix timestamp, to a modification time.
func ttlTime(ttl sql.NullInt64) time.Time {
	if !ttl.Valid || ttl.Int64 <= 0 {
		return time.Time{}
	}
	return time.Unix(ttl.Int64, 0)
}

// Enumerate implements source.Source. Music never lives in the database, so
// enumerating it returns immediately.
func (s *Source) Enumerate(ctx context.Context, category assettypes.Category, r source.Reporter, emit func(assettypes.AssetInfo)) (err error) {
	if category == assettypes.CategoryMusic {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		logging.Error("No database connection")
		r.Status(locale.FailedOpeningFile)
		return source.ErrNoConnection
	}

	start := time.Now()
	defer func() { recordQuery("list", start, err) }()

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&total); err != nil {
		r.Status(locale.FailedOpeningFile)
		return fmt.Errorf("count files: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		logging.Error("Error querying database for listing files: %v", err)
		r.Status(locale.FailedOpeningFile)
		return fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var item int64
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if total > 0 {
			r.Progress(float64(item) / float64(total))
			r.Status(locale.FilteringFiles, item, total)
		}
		item++

		var (
			id      []byte
			size    int64
			ttl     sql.NullInt64
			content []byte
		)
		if err := rows.Scan(&id, &size, &ttl, &content); err != nil {
			logging.Debug("Skipping unreadable row: %v", err)
			continue
		}

		data := compression.MaybeDecompress(content)
		if !classify.Matches(category, data) {
			continue
		}

		matched := category
		if category == assettypes.CategoryAll {
			matched = classify.DetermineCategory(data)
		}

		metrics.AssetsListedTotal.WithLabelValues(assettypes.OriginDatabase.String(), matched.String()).Inc()
		emit(assettypes.AssetInfo{
			Name:         hex.EncodeToString(id),
			Size:         size,
			LastModified: ttlTime(ttl),
			Origin:       assettypes.OriginDatabase,
			Category:     matched,
		})
	}

	return rows.Err()
}

// Read implements source.Source.
func (s *Source) Read(ctx context.Context, asset assettypes.AssetInfo) ([]byte, error) {
	if err := source.CheckOrigin(assettypes.OriginDatabase, asset); err != nil {
		return nil, err
	}
	id, err := decodeID(asset.Name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, source.ErrNoConnection
	}

	start := time.Now()
	var content []byte
	err = s.db.QueryRowContext(ctx, "SELECT content FROM files WHERE id = ?", id).Scan(&content)
	recordQuery("read", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, asset.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", asset.Name, err)
	}
	return content, nil
}

// Lookup implements source.Source.
func (s *Source) Lookup(ctx context.Context, idHex string, category assettypes.Category) (assettypes.AssetInfo, error) {
	id, err := decodeID(idHex)
	if err != nil {
		return assettypes.AssetInfo{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return assettypes.AssetInfo{}, source.ErrNoConnection
	}

	start := time.Now()
	var (
		size int64
		ttl  sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx, "SELECT size, ttl FROM files WHERE id = ?", id).Scan(&size, &ttl)
	recordQuery("lookup", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return assettypes.AssetInfo{}, fmt.Errorf("%w: %s", source.ErrNotFound, idHex)
	}
	if err != nil {
		return assettypes.AssetInfo{}, fmt.Errorf("lookup %s: %w", idHex, err)
	}

	return assettypes.AssetInfo{
		Name:         idHex,
		Size:         size,
		LastModified: ttlTime(ttl),
		Origin:       assettypes.OriginDatabase,
		Category:     category,
	}, nil
}

// readContent reads the content of id inside tx.
func readContent(ctx context.Context, tx *sql.Tx, id []byte, name string) ([]byte, error) {
	var content []byte
	err := tx.QueryRowContext(ctx, "SELECT content FROM files WHERE id = ?", id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, name)
	}
	return content, err
}

// writeContent replaces the content of id inside tx.
func writeContent(ctx context.Context, tx *sql.Tx, id, content []byte, name string) error {
	res, err := tx.ExecContext(ctx, "UPDATE files SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", source.ErrNotFound, name)
	}
	return nil
}

// inTx runs fn in a transaction, committing on success and rolling back
// otherwise.
func (s *Source) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return source.ErrNoConnection
	}

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		return fmt.Errorf("commit: %w", err)
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(start).Seconds())
	return nil
}

// Swap implements source.Source. Both rows change in one transaction.
func (s *Source) Swap(ctx context.Context, a, b assettypes.AssetInfo) error {
	if err := source.CheckOrigin(assettypes.OriginDatabase, a, b); err != nil {
		return err
	}
	idA, err := decodeID(a.Name)
	if err != nil {
		return err
	}
	idB, err := decodeID(b.Name)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		contentA, err := readContent(ctx, tx, idA, a.Name)
		if err != nil {
			return err
		}
		contentB, err := readContent(ctx, tx, idB, b.Name)
		if err != nil {
			return err
		}
		if err := writeContent(ctx, tx, idA, contentB, a.Name); err != nil {
			return err
		}
		return writeContent(ctx, tx, idB, contentA, b.Name)
	})
	recordQuery("swap", start, err)

	if err != nil {
		return fmt.Errorf("swap %s and %s: %w", a.Name, b.Name, err)
	}
	logging.Debug("Swapped database rows %s and %s", a.Name, b.Name)
	return nil
}

// Copy implements source.Source.
func (s *Source) Copy(ctx context.Context, a, b assettypes.AssetInfo) error {
	if err := source.CheckOrigin(assettypes.OriginDatabase, a, b); err != nil {
		return err
	}
	idA, err := decodeID(a.Name)
	if err != nil {
		return err
	}
	idB, err := decodeID(b.Name)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		content, err := readContent(ctx, tx, idA, a.Name)
		if err != nil {
			return err
		}
		return writeContent(ctx, tx, idB, content, b.Name)
	})
	recordQuery("copy", start, err)

	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", a.Name, b.Name, err)
	}
	logging.Debug("Copied database row %s to %s", a.Name, b.Name)
	return nil
}

// Clear implements source.Source. The connection is closed so the file can
// be deleted, then reopened at the same path, and finally the storage folder
// next to the database is removed.
func (s *Source) Clear(ctx context.Context, r source.Reporter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const total = 2
	r.Progress(0)
	r.Status(locale.DeletingFiles, 0, total)

	path := s.path
	if path == "" {
		logging.Error("No database path found")
		return source.ErrNoConnection
	}

	if err := s.closeLocked(); err != nil {
		logging.Error("Failed disconnecting from database: %v", err)
	}

	var errs []error

	if err := os.Remove(path); err != nil {
		logging.Error("Failed to delete database file: %v", err)
		r.Progress(0.5)
		r.Status(locale.FailedDeletingFile, 1, total, err.Error())
		errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
	} else {
		r.Progress(0.5)
		r.Status(locale.DeletingFiles, 1, total)
	}

	// Reopening recreates an empty database file for the client.
	if db, err := openDB(ctx, path); err != nil {
		logging.Error("Failed to reconnect to database: %v", err)
		errs = append(errs, fmt.Errorf("reopen %s: %w", path, err))
	} else {
		s.db = db
		s.setStateLocked(StateOpen)
		logging.Info("Reconnected to database at %s", path)
	}

	storage := filepath.Join(filepath.Dir(path), StorageFolder)
	if err := filesystem.RemoveAllSafe(storage); err != nil {
		logging.Error("Failed to delete storage folder: %v", err)
		r.Progress(1)
		r.Status(locale.FailedDeletingFile, total, total, err.Error())
		errs = append(errs, fmt.Errorf("delete %s: %w", storage, err))
	} else {
		r.Progress(1)
		r.Status(locale.DeletedFiles, total, total)
	}

	return errors.Join(errs...)
}
