package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// nullableFloat maps an optional average to a nullable column value.
func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// encodeResponses serializes the response log for the responses column.
func encodeResponses(responses []models.Response) (string, error) {
	if responses == nil {
		responses = []models.Response{}
	}
	b, err := json.Marshal(responses)
	if err != nil {
		return "", fmt.Errorf("encode responses failed: %w", err)
	}
	return string(b), nil
}

// scanResult scans a SurveyResult from sql.Rows.
func scanResult(rows *sql.Rows) (models.SurveyResult, error) {
	var r models.SurveyResult
	var average sql.NullFloat64
	var responsesJSON string
	err := rows.Scan(&r.SessionID, &r.Title, &r.CreatedAt, &r.CompletedAt, &average, &responsesJSON)
	if err != nil {
		return r, fmt.Errorf("scan survey result failed: %w", err)
	}
	if average.Valid {
		v := average.Float64
		r.AverageRating = &v
	}
	if err := json.Unmarshal([]byte(responsesJSON), &r.Responses); err != nil {
		return r, fmt.Errorf("decode responses for session %s failed: %w", r.SessionID, err)
	}
	return r, nil
}

// queryResults runs a SELECT returning result rows in scanResult column order.
func queryResults(ctx context.Context, db *sql.DB, query string) ([]models.SurveyResult, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query survey results: %w", err)
	}
	defer rows.Close()

	results := []models.SurveyResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate survey result rows: %w", err)
	}
	return results, nil
}
