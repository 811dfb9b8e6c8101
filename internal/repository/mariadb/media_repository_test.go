package mariadb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

var testCreated = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testRecord(id, specimenID, mediaURL string, version int) model.MediaRecord {
	return model.MediaRecord{
		ID:      id,
		Version: version,
		Created: testCreated,
		Wrapper: model.MediaWrapper{
			ID:         id,
			Type:       "StillImage",
			SpecimenID: specimenID,
			Attributes: model.Attributes{
				AccessURI: mediaURL,
				License:   "CC0",
				Modified:  testCreated,
			},
			OriginalAttributes: []byte(`{"raw":"payload"}`),
		},
	}
}

func TestMediaRepository_GetByIdentityKeys_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	query := `
      SELECT id, version, type, specimen_id, created, data, original_data
      FROM digital_media
      WHERE (specimen_id, media_url) IN (` + rowPlaceholders(2) + `)
    `
	rows := sqlmock.NewRows([]string{"id", "version", "type", "specimen_id", "created", "data", "original_data"}).
		AddRow("H1", 1, "StillImage", "S1", testCreated,
			[]byte(`{"access_uri":"https://img.example.org/L1","license":"CC0","modified":"2025-06-01T12:00:00Z"}`),
			[]byte(`{"raw":"payload"}`))

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("S1", "https://img.example.org/L1", "S2", "https://img.example.org/L2").
		WillReturnRows(rows)

	keys := []model.IdentityKey{
		{SpecimenID: "S1", MediaURL: "https://img.example.org/L1"},
		{SpecimenID: "S2", MediaURL: "https://img.example.org/L2"},
	}
	records, err := repo.GetByIdentityKeys(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetByIdentityKeys() returned unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID != "H1" || rec.Version != 1 {
		t.Errorf("expected H1 v1, got %s v%d", rec.ID, rec.Version)
	}
	if rec.Wrapper.ID != "H1" {
		t.Errorf("the wrapper should carry the row's handle, got %q", rec.Wrapper.ID)
	}
	if rec.Wrapper.Attributes.AccessURI != "https://img.example.org/L1" {
		t.Errorf("attributes not decoded: %+v", rec.Wrapper.Attributes)
	}
	if string(rec.Wrapper.OriginalAttributes) != `{"raw":"payload"}` {
		t.Errorf("original payload not carried: %s", rec.Wrapper.OriginalAttributes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_GetByIdentityKeys_Empty(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	records, err := repo.GetByIdentityKeys(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetByIdentityKeys() returned unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("expected no query for an empty key list, got %v", records)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_UpsertBatch_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	rec := testRecord("H1", "S1", "https://img.example.org/L1", 1)

	mock.ExpectExec(regexp.QuoteMeta(`
      INSERT INTO digital_media
        (id, version, type, specimen_id, media_url, created, last_checked, modified, data, original_data)
      VALUES (?, ?, ?, ?, ?, ?, NOW(6), ?, ?, ?)
      ON DUPLICATE KEY UPDATE
    `)).
		WithArgs(
			rec.ID,
			rec.Version,
			rec.Wrapper.Type,
			rec.Wrapper.SpecimenID,
			rec.Wrapper.Attributes.AccessURI,
			rec.Created,
			rec.Wrapper.Attributes.Modified,
			sqlmock.AnyArg(), // data
			sqlmock.AnyArg(), // original_data
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertBatch(context.Background(), []model.MediaRecord{rec}); err != nil {
		t.Errorf("UpsertBatch() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_UpsertBatch_ExecError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	mock.ExpectExec("INSERT INTO digital_media").
		WillReturnError(errors.New("deadlock found"))

	err = repo.UpsertBatch(context.Background(), []model.MediaRecord{
		testRecord("H1", "S1", "https://img.example.org/L1", 1),
	})
	if err == nil {
		t.Error("UpsertBatch() expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_UpdateLastChecked_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE digital_media
      SET last_checked = NOW(6)
      WHERE id IN (?,?)
    `)).
		WithArgs("H1", "H2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.UpdateLastChecked(context.Background(), []string{"H1", "H2"}); err != nil {
		t.Errorf("UpdateLastChecked() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_DeleteByIDs_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM digital_media WHERE id IN (?)`)).
		WithArgs("H1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteByIDs(context.Background(), []string{"H1"}); err != nil {
		t.Errorf("DeleteByIDs() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_SpecimenExists(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM specimens WHERE id = ?)`)).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.SpecimenExists(context.Background(), "S1")
	if err != nil {
		t.Fatalf("SpecimenExists() returned unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected the specimen to exist")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMediaRepository_SpecimenExists_QueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewMediaRepository(sqlDB)

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnError(errors.New("connection lost"))

	if _, err := repo.SpecimenExists(context.Background(), "S1"); err == nil {
		t.Error("SpecimenExists() expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
