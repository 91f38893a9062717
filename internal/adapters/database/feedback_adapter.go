package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

// FeedbackAdapter persists correction reports in the SQL store
type FeedbackAdapter struct {
	store
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(s SQLStore) repositories.FeedbackRepository {
	return &FeedbackAdapter{store: newStore(s)}
}

// Create inserts a feedback record.
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	lotID := sql.NullInt64{}
	if feedback.LotID != nil {
		lotID = sql.NullInt64{Int64: int64(*feedback.LotID), Valid: true}
	}

	record := goqu.Record{
		"id":         feedback.ID,
		"lot_id":     lotID,
		"message":    feedback.Message,
		"email":      nullString(feedback.Email),
		"page":       nullString(feedback.Page),
		"user_agent": nullString(feedback.UserAgent),
		"created_at": feedback.CreatedAt,
	}

	query, args, err := a.qb.Insert(feedbackTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create feedback", err)
	}

	return nil
}
