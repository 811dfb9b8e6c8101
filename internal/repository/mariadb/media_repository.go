package mariadb

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
)

type MediaRepository struct {
	db *sql.DB
}

// compile-time check: *MediaRepository must satisfy port.MediaRepository
var _ port.MediaRepository = (*MediaRepository)(nil)

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) GetByIdentityKeys(ctx context.Context, keys []model.IdentityKey) ([]model.MediaRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	log.Printf("fetching current media records for %d identity keys...", len(keys))

	query := `
      SELECT id, version, type, specimen_id, created, data, original_data
      FROM digital_media
      WHERE (specimen_id, media_url) IN (` + rowPlaceholders(len(keys)) + `)
    `
	args := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k.SpecimenID, k.MediaURL)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var records []model.MediaRecord
	for rows.Next() {
		var rec model.MediaRecord
		var original []byte
		if err := rows.Scan(
			&rec.ID, &rec.Version, &rec.Wrapper.Type, &rec.Wrapper.SpecimenID,
			&rec.Created, &rec.Wrapper.Attributes, &original,
		); err != nil {
			return nil, err
		}
		rec.Wrapper.ID = rec.ID
		rec.Wrapper.OriginalAttributes = original
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *MediaRepository) UpsertBatch(ctx context.Context, records []model.MediaRecord) error {
	if len(records) == 0 {
		return nil
	}
	log.Printf("upserting %d media records...", len(records))

	query := `
      INSERT INTO digital_media
        (id, version, type, specimen_id, media_url, created, last_checked, modified, data, original_data)
      VALUES ` + strings.TrimSuffix(strings.Repeat("(?, ?, ?, ?, ?, ?, NOW(6), ?, ?, ?),", len(records)), ",") + `
      ON DUPLICATE KEY UPDATE
        version       = VALUES(version),
        type          = VALUES(type),
        media_url     = VALUES(media_url),
        last_checked  = VALUES(last_checked),
        modified      = VALUES(modified),
        data          = VALUES(data),
        original_data = VALUES(original_data)
    `
	args := make([]interface{}, 0, len(records)*9)
	for _, rec := range records {
		args = append(args,
			rec.ID, rec.Version, rec.Wrapper.Type, rec.Wrapper.SpecimenID,
			rec.Wrapper.Attributes.AccessURI, rec.Created,
			rec.Wrapper.Attributes.Modified, rec.Wrapper.Attributes,
			[]byte(rec.Wrapper.OriginalAttributes),
		)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *MediaRepository) UpdateLastChecked(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	log.Printf("touching last-checked watermark for %d media records...", len(ids))

	query := `
      UPDATE digital_media
      SET last_checked = NOW(6)
      WHERE id IN (` + placeholders(len(ids)) + `)
    `
	_, err := r.db.ExecContext(ctx, query, idArgs(ids)...)
	return err
}

func (r *MediaRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	log.Printf("deleting %d media records...", len(ids))

	query := `DELETE FROM digital_media WHERE id IN (` + placeholders(len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, idArgs(ids)...)
	return err
}

func (r *MediaRepository) SpecimenExists(ctx context.Context, specimenID string) (bool, error) {
	log.Printf("checking existence of specimen %q...", specimenID)

	const query = `SELECT EXISTS(SELECT 1 FROM specimens WHERE id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, specimenID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func rowPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("(?, ?),", n), ",")
}

func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
