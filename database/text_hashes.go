package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"originality-bot/models"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateDigest is returned by InsertTextHash when the digest is already recorded.
var ErrDuplicateDigest = errors.New("digest already recorded")

// InsertTextHash records a text digest. The unique index arbitrates concurrent
// inserts of the same digest; the loser gets ErrDuplicateDigest.
func (s *Store) InsertTextHash(ctx context.Context, rec models.TextHashRecord) error {
	query := `INSERT INTO text_hashes (author, message_id, digest, sent_at) VALUES (?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, rec.AuthorID, rec.MessageID, rec.Digest, rec.SentAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDigest
		}
		return fmt.Errorf("failed to insert text hash for message %s: %w", rec.MessageID, err)
	}
	return nil
}

// TextHashByDigest returns the record holding digest, or nil, nil if there is none.
func (s *Store) TextHashByDigest(ctx context.Context, digest string) (*models.TextHashRecord, error) {
	query := `SELECT author, message_id, digest, sent_at FROM text_hashes WHERE digest = ?`

	var rec models.TextHashRecord
	var sentAt int64
	err := s.db.QueryRowContext(ctx, query, digest).Scan(&rec.AuthorID, &rec.MessageID, &rec.Digest, &sentAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query text hash %s: %w", digest, err)
	}
	rec.SentAt = time.UnixMilli(sentAt)
	return &rec, nil
}

// DeleteTextHashByMessage frees the digest recorded for messageID.
func (s *Store) DeleteTextHashByMessage(ctx context.Context, messageID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM text_hashes WHERE message_id = ?`, messageID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete text hash for message %s: %w", messageID, err)
	}
	return res.RowsAffected()
}

// ResetTextHashes removes every recorded digest.
func (s *Store) ResetTextHashes(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM text_hashes`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset text hashes: %w", err)
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
