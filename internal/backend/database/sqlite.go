package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
	now              func() time.Time
}

func NewSQLiteDatabase(connectionString string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// a second pooled connection to ":memory:" would open a separate empty database
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
		now:              time.Now,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS media (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			is_pending INTEGER NOT NULL DEFAULT 0,
			source_photo_id TEXT NOT NULL DEFAULT '',
			data BLOB,
			size INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_media_created_at ON media (created_at)`,
		`CREATE TABLE IF NOT EXISTS wallpaper (
			slot INTEGER PRIMARY KEY CHECK (slot = 0),
			media_id TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			data BLOB NOT NULL,
			set_at INTEGER NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return nil, err
		}
	}
	return s.db, nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// SQLite creates the file on connect, a successful ping is enough
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) SupportsPending() bool {
	return true
}

func (s *SQLiteDatabase) RequiresWritePermission() bool {
	return false
}

func (s *SQLiteDatabase) Insert(ctx context.Context, details MediaDetails) (*Media, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	media := &Media{
		ID:            id,
		DisplayName:   details.DisplayName,
		MimeType:      details.MimeType,
		IsPending:     details.IsPending,
		SourcePhotoID: details.SourcePhotoID,
		CreatedAt:     s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO media (id, display_name, mime_type, is_pending, source_photo_id, data, size, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, 0, ?)`,
		media.ID, media.DisplayName, media.MimeType, boolToInt(media.IsPending), media.SourcePhotoID, media.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert media %s: %w", media.DisplayName, err)
	}
	return media, nil
}

func (s *SQLiteDatabase) Write(ctx context.Context, id string, data []byte) error {
	result, err := s.db.ExecContext(ctx, "UPDATE media SET data = ?, size = ? WHERE id = ?", data, len(data), id)
	if err != nil {
		return fmt.Errorf("failed to write media %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

func (s *SQLiteDatabase) Update(ctx context.Context, id string, update MediaUpdate) error {
	result, err := s.db.ExecContext(ctx, "UPDATE media SET is_pending = ? WHERE id = ?", boolToInt(update.IsPending), id)
	if err != nil {
		return fmt.Errorf("failed to update media %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

func (s *SQLiteDatabase) Get(ctx context.Context, id string) (*Media, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, display_name, mime_type, is_pending, source_photo_id, size, created_at FROM media WHERE id = ?", id)
	media, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media %s: %w", id, err)
	}
	return media, nil
}

func (s *SQLiteDatabase) List(ctx context.Context, includePending bool) ([]*Media, error) {
	query := "SELECT id, display_name, mime_type, is_pending, source_photo_id, size, created_at FROM media"
	if !includePending {
		query += " WHERE is_pending = 0"
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var media []*Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media: %w", err)
	}
	return media, nil
}

func (s *SQLiteDatabase) Data(ctx context.Context, id string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data FROM media WHERE id = ?", id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to read media %s: %w", id, err)
	}
	return data, nil
}

func (s *SQLiteDatabase) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete media %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

func (s *SQLiteDatabase) SetWallpaper(ctx context.Context, wallpaper Wallpaper) error {
	setAt := wallpaper.SetAt
	if setAt.IsZero() {
		setAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wallpaper (slot, media_id, mime_type, data, set_at) VALUES (0, ?, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET media_id = excluded.media_id, mime_type = excluded.mime_type,
			data = excluded.data, set_at = excluded.set_at`,
		wallpaper.MediaID, wallpaper.MimeType, wallpaper.Data, setAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store wallpaper: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetWallpaper(ctx context.Context) (*Wallpaper, error) {
	row := s.db.QueryRowContext(ctx, "SELECT media_id, mime_type, data, set_at FROM wallpaper WHERE slot = 0")
	var wallpaper Wallpaper
	var setAt int64
	if err := row.Scan(&wallpaper.MediaID, &wallpaper.MimeType, &wallpaper.Data, &setAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWallpaperNotFound
		}
		return nil, fmt.Errorf("failed to read wallpaper: %w", err)
	}
	wallpaper.SetAt = time.Unix(0, setAt).UTC()
	return &wallpaper, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*Media, error) {
	var m Media
	var pending int
	var createdAt int64
	if err := row.Scan(&m.ID, &m.DisplayName, &m.MimeType, &pending, &m.SourcePhotoID, &m.Size, &createdAt); err != nil {
		return nil, err
	}
	m.IsPending = pending != 0
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	return &m, nil
}

func expectOneRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for media %s: %w", id, err)
	}
	if affected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
