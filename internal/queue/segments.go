package queue

import (
	"context"
	"database/sql"
	"fmt"

	"dubber/internal/segment"
)

// ReplaceSegments rewrites the stored transcript for a job in one
// transaction. Stages call this after each checkpoint so a resumed job sees
// exactly the segments the last completed stage produced.
func (s *Store) ReplaceSegments(ctx context.Context, jobID int64, segments []segment.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin segments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_segments WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO job_segments (
            job_id, seg_id, start_sec, end_sec, source_text, translated_text, speaker_id, audio_path
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		_, err := stmt.ExecContext(ctx,
			jobID,
			seg.ID,
			seg.Start,
			seg.End,
			nullableString(seg.SourceText),
			nullableString(seg.TranslatedText),
			nullableString(seg.SpeakerID),
			nullableString(seg.AudioPath),
		)
		if err != nil {
			return fmt.Errorf("insert segment %d: %w", seg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segments: %w", err)
	}
	return nil
}

// SegmentsForJob returns the stored transcript ordered by segment id.
func (s *Store) SegmentsForJob(ctx context.Context, jobID int64) ([]segment.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seg_id, start_sec, end_sec, source_text, translated_text, speaker_id, audio_path
         FROM job_segments WHERE job_id = ? ORDER BY seg_id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segments []segment.Segment
	for rows.Next() {
		var (
			seg        segment.Segment
			sourceText sql.NullString
			translated sql.NullString
			speakerID  sql.NullString
			audioPath  sql.NullString
		)
		if err := rows.Scan(&seg.ID, &seg.Start, &seg.End, &sourceText, &translated, &speakerID, &audioPath); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg.SourceText = sourceText.String
		seg.TranslatedText = translated.String
		seg.SpeakerID = speakerID.String
		seg.AudioPath = audioPath.String
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}
