package eventlogger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Bindu232003/expense-tracker-api/database"
	sq "github.com/Masterminds/squirrel"
)

type sqlEventLogger struct {
	db *sql.DB
}

func NewSqlEventLogger(db *sql.DB) *sqlEventLogger {
	return &sqlEventLogger{
		db: db,
	}
}

func (el *sqlEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}

	statement, args, err := database.Psql.
		Insert("events").
		Columns("id", "event_type", "event_data", "event_metadata", "created_at").
		Values(e.ID, e.Type, jsonData, jsonMetadata, e.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = el.db.ExecContext(ctx, statement, args...)
	return err
}

func (el *sqlEventLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	query, args, err := database.Psql.
		Select("id", "event_type", "event_data", "event_metadata", "created_at").
		From("events").
		Where(sq.Eq{"event_type": eventType}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := el.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	events := make([]Event, 0)
	for result.Next() {
		var event Event
		var jsonData, jsonMetadata []byte
		if err := result.Scan(&event.ID, &event.Type, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		if len(jsonData) > 0 {
			event.Data = json.RawMessage(jsonData)
		}
		if len(jsonMetadata) > 0 {
			if err := json.Unmarshal(jsonMetadata, &event.Metadata); err != nil {
				return events, fmt.Errorf("unmarshal event metadata: %w", err)
			}
		}

		events = append(events, event)
	}

	return events, result.Err()
}
