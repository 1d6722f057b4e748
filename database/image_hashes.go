package database

import (
	"context"
	"fmt"

	"originality-bot/models"
)

// FindSimilarImages returns rows whose structural distance is below structuralMax
// and whose color distance is below colorMax, oldest first. Rows hashed at a
// different width never match and never reach hamming_distance.
func (s *Store) FindSimilarImages(ctx context.Context, structural, color string, structuralMax, colorMax int) ([]models.ImageHashRecord, error) {
	query := `SELECT id, structural_hash, color_hash, message_id, channel_id, guild_id
              FROM image_hashes
              WHERE CASE
                  WHEN length(structural_hash) = ? AND length(color_hash) = ?
                  THEN hamming_distance(structural_hash, ?) < ?
                   AND hamming_distance(color_hash, ?) < ?
                  ELSE 0
              END
              ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query,
		len(structural), len(color),
		structural, structuralMax,
		color, colorMax,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar images: %w", err)
	}
	defer rows.Close()

	var records []models.ImageHashRecord
	for rows.Next() {
		var rec models.ImageHashRecord
		if err := rows.Scan(&rec.ID, &rec.StructuralHash, &rec.ColorHash, &rec.MessageID, &rec.ChannelID, &rec.GuildID); err != nil {
			return nil, fmt.Errorf("failed to scan image hash row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during image hash rows iteration: %w", err)
	}
	return records, nil
}

// InsertImageHash records the fingerprints of one attachment and returns the row id.
func (s *Store) InsertImageHash(ctx context.Context, rec models.ImageHashRecord) (int64, error) {
	query := `INSERT INTO image_hashes (structural_hash, color_hash, message_id, channel_id, guild_id)
              VALUES (?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, rec.StructuralHash, rec.ColorHash, rec.MessageID, rec.ChannelID, rec.GuildID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image hash for message %s: %w", rec.MessageID, err)
	}
	return res.LastInsertId()
}

// DeleteImageHash removes a stale row.
func (s *Store) DeleteImageHash(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM image_hashes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete image hash %d: %w", id, err)
	}
	return nil
}

// CountImageHashes returns the number of recorded images.
func (s *Store) CountImageHashes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image_hashes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count image hashes: %w", err)
	}
	return n, nil
}

// ResetImageHashes removes every recorded image.
func (s *Store) ResetImageHashes(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM image_hashes`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset image hashes: %w", err)
	}
	return res.RowsAffected()
}
