package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

// IssueTemplate is the issue-tracker link correction reports are sent to
type IssueTemplate struct {
	URL   string
	Title string
	Body  string
}

// FeedbackService handles correction reports.
type FeedbackService struct {
	repo     repositories.FeedbackRepository
	template IssueTemplate
	now      func() time.Time
}

// NewFeedbackService creates a new feedback service. repo may be nil when
// reports are only collected through the issue link.
func NewFeedbackService(repo repositories.FeedbackRepository, template IssueTemplate) *FeedbackService {
	return &FeedbackService{repo: repo, template: template, now: time.Now}
}

// Create stores feedback.
func (s *FeedbackService) Create(ctx context.Context, feedback *entities.Feedback) error {
	if s.repo == nil {
		return apperrors.NewInternalError("feedback storage is not configured", nil)
	}
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = s.now().UTC()
	}
	return s.repo.Create(ctx, feedback)
}

// IssueURL returns the link that opens a prefilled correction issue. lot may
// be nil for a general report.
func (s *FeedbackService) IssueURL(lot *entities.ParkingLot) string {
	title := s.template.Title
	body := s.template.Body
	if lot != nil {
		title = fmt.Sprintf("%s: %s", title, lot.Name)
		body = fmt.Sprintf("%s\n\n対象: %s (ID %d)", body, lot.Name, lot.ID)
	}

	q := url.Values{}
	q.Set("title", title)
	q.Set("body", body)

	sep := "?"
	if strings.Contains(s.template.URL, "?") {
		sep = "&"
	}
	return s.template.URL + sep + q.Encode()
}
