package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

const (
	feedbackRateLimit   = 5
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour
	maxFeedbackBody     = 16 << 10

	maxMessageRunes = 1000
	maxEmailBytes   = 200
	maxPageBytes    = 300
)

// FeedbackService stores reports and builds issue links.
type FeedbackService interface {
	Create(ctx context.Context, feedback *entities.Feedback) error
	IssueURL(lot *entities.ParkingLot) string
}

// LotLookup finds the lot a report is about
type LotLookup interface {
	Lot(id int) (*entities.ParkingLot, error)
}

// FeedbackHandler accepts correction reports from the map.
type FeedbackHandler struct {
	service FeedbackService
	lots    LotLookup
	guard   *feedbackGuard
}

// NewFeedbackHandler creates a feedback handler. With a nil cache the rate
// limit and duplicate filter only cover this process.
func NewFeedbackHandler(service FeedbackService, lots LotLookup, cache providers.CacheProvider) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		lots:    lots,
		guard:   newFeedbackGuard(cache),
	}
}

type feedbackRequest struct {
	LotID   *int   `json:"lot_id"`
	Message string `json:"message"`
	Email   string `json:"email"`
	Page    string `json:"page"`
}

func (f *feedbackRequest) normalize() error {
	f.Message = strings.TrimSpace(f.Message)
	f.Email = strings.TrimSpace(f.Email)
	f.Page = strings.TrimSpace(f.Page)

	switch {
	case f.Message == "":
		return apperrors.NewValidationError("message is required")
	case utf8.RuneCountInString(f.Message) > maxMessageRunes:
		return apperrors.NewValidationError("message is too long")
	case len(f.Email) > maxEmailBytes:
		return apperrors.NewValidationError("email is too long")
	case len(f.Page) > maxPageBytes:
		return apperrors.NewValidationError("page is too long")
	}
	return nil
}

// fingerprint identifies a report regardless of case and spacing.
func (f *feedbackRequest) fingerprint(ip string) string {
	lot := "-"
	if f.LotID != nil {
		lot = strconv.Itoa(*f.LotID)
	}
	message := strings.Join(strings.Fields(strings.ToLower(f.Message)), " ")

	h := sha256.New()
	for _, part := range []string{lot, message, strings.ToLower(f.Email), strings.ToLower(f.Page), ip} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req feedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBody)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := req.normalize(); err != nil {
		respondWithAppError(w, err)
		return
	}
	if req.LotID != nil {
		if _, err := h.lots.Lot(*req.LotID); err != nil {
			respondWithAppError(w, err)
			return
		}
	}

	ip := clientIP(r)
	if ok, wait := h.guard.admit(ctx, ip); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		respondWithAppError(w, apperrors.NewRateLimitedError("rate limit exceeded"))
		return
	}
	fingerprint := req.fingerprint(ip)
	if h.guard.repeated(ctx, fingerprint) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "duplicate_ignored"})
		return
	}

	feedback := &entities.Feedback{
		LotID:     req.LotID,
		Message:   req.Message,
		Email:     req.Email,
		Page:      req.Page,
		UserAgent: r.UserAgent(),
	}
	if err := h.service.Create(ctx, feedback); err != nil {
		h.guard.release(ctx, fingerprint)
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("feedback not stored")
		respondWithError(w, http.StatusInternalServerError, "failed to submit feedback")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "received", "id": feedback.ID})
}

// GetFeedbackLink handles GET /api/feedback/link?lot_id=
func (h *FeedbackHandler) GetFeedbackLink(w http.ResponseWriter, r *http.Request) {
	var lot *entities.ParkingLot
	if raw := r.URL.Query().Get("lot_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "lot_id must be a lot id")
			return
		}
		if lot, err = h.lots.Lot(id); err != nil {
			respondWithAppError(w, err)
			return
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"url": h.service.IssueURL(lot)})
}

// clientIP prefers proxy headers over RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
