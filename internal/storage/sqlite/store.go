package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vHugoObject/the-manager/internal/domain/entities"
	"github.com/vHugoObject/the-manager/internal/engine"
)

// Store is the embedded single-file save store for local play. Same contract
// as the postgres store; saves travel as whole JSON payloads.
type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps the driver out of SQLITE_BUSY territory.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			game_date TEXT NOT NULL,
			season TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateSave(ctx context.Context, save entities.Save) error {
	payload, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("encode save %s: %w", save.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (id, name, game_date, season, payload, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
	`, save.ID.String(), save.Name, save.CurrentDate.Format(time.RFC3339), save.CurrentSeason,
		payload, save.CreatedAt.Format(time.RFC3339Nano), save.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetSave(ctx context.Context, id uuid.UUID) (entities.Save, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE id = ?`, id.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Save{}, fmt.Errorf("%w: %s", engine.ErrSaveNotFound, id)
		}
		return entities.Save{}, err
	}
	var save entities.Save
	if err := json.Unmarshal(payload, &save); err != nil {
		return entities.Save{}, fmt.Errorf("decode save %s: %w", id, err)
	}
	return save, nil
}

func (s *Store) PutSave(ctx context.Context, save entities.Save) error {
	payload, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("encode save %s: %w", save.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE saves
		SET name = ?, game_date = ?, season = ?, payload = ?, updated_at = ?
		WHERE id = ?
	`, save.Name, save.CurrentDate.Format(time.RFC3339), save.CurrentSeason, payload,
		save.UpdatedAt.Format(time.RFC3339Nano), save.ID.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", engine.ErrSaveNotFound, save.ID)
	}
	return nil
}

func (s *Store) ListSaves(ctx context.Context) ([]engine.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, game_date, season, updated_at
		FROM saves
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]engine.Summary, 0)
	for rows.Next() {
		var (
			rawID, rawDate, rawUpdated string
			v                          engine.Summary
		)
		if err := rows.Scan(&rawID, &v.Name, &rawDate, &v.CurrentSeason, &rawUpdated); err != nil {
			return nil, err
		}
		if v.ID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}
		if v.CurrentDate, err = time.Parse(time.RFC3339, rawDate); err != nil {
			return nil, err
		}
		if v.UpdatedAt, err = time.Parse(time.RFC3339Nano, rawUpdated); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) DeleteSave(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", engine.ErrSaveNotFound, id)
	}
	return nil
}
