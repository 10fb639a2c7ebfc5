package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
)

// ReadRecords returns one page of records of req.Kind whose start falls in
// req.Window, ordered by (start_time, id).
func (s *Store) ReadRecords(ctx context.Context, req healthstore.ReadRequest) (*healthstore.ReadResponse, error) {
	after, err := decodeCursor(req.PageToken)
	if err != nil {
		return nil, err
	}
	pageSize := s.pageSize
	if req.PageSize > 0 {
		pageSize = req.PageSize
	}

	query := `SELECT id, kind, start_time, end_time, value, exercise_type, title, data_origin, last_modified
		 FROM health_records
		 WHERE kind = $1 AND start_time >= $2 AND start_time < $3`
	args := []any{req.Kind.String(), req.Window.Start, req.Window.End}
	if after != nil {
		query += ` AND (start_time, id) > ($4, $5)`
		args = append(args, after.StartTime, after.ID)
	}
	query += fmt.Sprintf(` ORDER BY start_time, id LIMIT %d`, pageSize+1)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying health records: %w", err)
	}
	defer rows.Close()

	recordRows, err := scanHealthRecordRows(rows)
	if err != nil {
		return nil, err
	}

	resp := &healthstore.ReadResponse{}
	if len(recordRows) > pageSize {
		recordRows = recordRows[:pageSize]
		last := recordRows[len(recordRows)-1]
		resp.PageToken = encodeCursor(cursor{StartTime: last.StartTime, ID: last.ID})
	}
	resp.Records = make([]healthstore.Record, 0, len(recordRows))
	for _, r := range recordRows {
		rec, err := FromRow(r)
		if err != nil {
			return nil, err
		}
		resp.Records = append(resp.Records, rec)
	}
	return resp, nil
}

// InsertRecords batch-inserts records. Returns the number actually inserted
// (skipped duplicates via ON CONFLICT DO NOTHING).
func (s *Store) InsertRecords(ctx context.Context, records []healthstore.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `INSERT INTO health_records (id, kind, start_time, end_time, value, exercise_type, title, data_origin, last_modified)
VALUES `
	args := make([]any, 0, len(records)*9)
	valueStrings := make([]string, 0, len(records))

	for i, rec := range records {
		r, err := ToRow(rec)
		if err != nil {
			return 0, err
		}
		base := i * 9
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, r.ID, r.Kind, r.StartTime, r.EndTime, r.Value,
			r.ExerciseType, r.Title, r.DataOrigin, r.LastModified)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting health records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanHealthRecordRows(rows pgx.Rows) ([]models.HealthRecordRow, error) {
	var result []models.HealthRecordRow
	for rows.Next() {
		var r models.HealthRecordRow
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartTime, &r.EndTime, &r.Value,
			&r.ExerciseType, &r.Title, &r.DataOrigin, &r.LastModified); err != nil {
			return nil, fmt.Errorf("scanning health record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ToRow converts a record for insertion. Records without an ID get a random one.
func ToRow(rec healthstore.Record) (models.HealthRecordRow, error) {
	id := uuid.New()
	if rec.Metadata.ID != "" {
		parsed, err := uuid.Parse(rec.Metadata.ID)
		if err != nil {
			return models.HealthRecordRow{}, fmt.Errorf("record id %q: %w", rec.Metadata.ID, err)
		}
		id = parsed
	}

	row := models.HealthRecordRow{
		ID:           id,
		Kind:         rec.Kind().String(),
		StartTime:    rec.StartTime.UTC(),
		EndTime:      rec.EndTime.UTC(),
		DataOrigin:   rec.Metadata.DataOrigin,
		LastModified: rec.Metadata.LastModified.UTC(),
	}
	if row.LastModified.IsZero() {
		row.LastModified = row.EndTime
	}

	switch p := rec.Payload.(type) {
	case healthstore.Steps:
		row.Value = models.Float64(float64(p.Count))
	case healthstore.ActiveCaloriesBurned:
		row.Value = models.Float64(p.Kilocalories)
	case healthstore.TotalCaloriesBurned:
		row.Value = models.Float64(p.Kilocalories)
	case healthstore.Distance:
		row.Value = models.Float64(p.Meters)
	case healthstore.ExerciseSession:
		code := int(p.ExerciseType)
		row.ExerciseType = &code
		row.Title = p.Title
	default:
		return models.HealthRecordRow{}, fmt.Errorf("record kind %s cannot be stored", rec.Kind())
	}
	return row, nil
}

// FromRow converts a stored row back into a record.
func FromRow(r models.HealthRecordRow) (healthstore.Record, error) {
	kind, err := healthstore.ParseRecordKind(r.Kind)
	if err != nil {
		return healthstore.Record{}, err
	}

	var value float64
	if r.Value != nil {
		value = *r.Value
	}

	rec := healthstore.Record{
		StartTime: r.StartTime.UTC(),
		EndTime:   r.EndTime.UTC(),
		Metadata: healthstore.Metadata{
			ID:           r.ID.String(),
			DataOrigin:   r.DataOrigin,
			LastModified: r.LastModified.UTC(),
		},
	}
	switch kind {
	case healthstore.KindSteps:
		rec.Payload = healthstore.Steps{Count: int64(value)}
	case healthstore.KindActiveCaloriesBurned:
		rec.Payload = healthstore.ActiveCaloriesBurned{Kilocalories: value}
	case healthstore.KindTotalCaloriesBurned:
		rec.Payload = healthstore.TotalCaloriesBurned{Kilocalories: value}
	case healthstore.KindDistance:
		rec.Payload = healthstore.Distance{Meters: value}
	case healthstore.KindExerciseSession:
		var code int
		if r.ExerciseType != nil {
			code = *r.ExerciseType
		}
		rec.Payload = healthstore.ExerciseSession{ExerciseType: healthstore.ExerciseType(code), Title: r.Title}
	}
	return rec, nil
}
