package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vHugoObject/the-manager/internal/domain/entities"
	"github.com/vHugoObject/the-manager/internal/engine"
)

// Store persists whole saves as JSONB payloads. A save is one aggregate and
// always moves as a unit, so the listing columns (name, date, season) are
// duplicated out of the payload purely for cheap list queries.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) CreateSave(ctx context.Context, save entities.Save) error {
	payload, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("encode save %s: %w", save.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO saves (id, name, game_date, season, payload, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, save.ID, save.Name, save.CurrentDate, save.CurrentSeason, payload, save.CreatedAt, save.UpdatedAt)
	return err
}

func (s *Store) GetSave(ctx context.Context, id uuid.UUID) (entities.Save, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM saves WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	tag, err := s.pool.Exec(ctx, `
		UPDATE saves
		SET name = $2, game_date = $3, season = $4, payload = $5, updated_at = $6
		WHERE id = $1
	`, save.ID, save.Name, save.CurrentDate, save.CurrentSeason, payload, save.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", engine.ErrSaveNotFound, save.ID)
	}
	return nil
}

func (s *Store) ListSaves(ctx context.Context) ([]engine.Summary, error) {
	rows, err := s.pool.Query(ctx, `
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
		var v engine.Summary
		if err := rows.Scan(&v.ID, &v.Name, &v.CurrentDate, &v.CurrentSeason, &v.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) DeleteSave(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saves WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", engine.ErrSaveNotFound, id)
	}
	return nil
}
