package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
	"github.com/eslsoft/wordpace/internal/usecase"
)

// Handler exposes the review subsystem over HTTP.
type Handler struct {
	review  usecase.ReviewUsecase
	session usecase.SessionUsecase
}

// NewHandler builds the HTTP handler set.
func NewHandler(review usecase.ReviewUsecase, session usecase.SessionUsecase) *Handler {
	return &Handler{review: review, session: session}
}

// Register mounts the API routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/attempts", h.recordAttempt)
	g.GET("/learners/:learner_id/queue", h.buildQueue)
	g.GET("/learners/:learner_id/session-size", h.recommendSessionSize)
	g.GET("/learners/:learner_id/progress", h.listProgress)
}

type attemptRequest struct {
	LearnerID      int64  `json:"learner_id"`
	ItemID         int64  `json:"item_id"`
	SessionID      string `json:"session_id"`
	Correct        bool   `json:"correct"`
	GivenAnswer    string `json:"given_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	ResponseTimeMs int32  `json:"response_time_ms"`
	HintsUsed      int32  `json:"hints_used"`
	Exercise       string `json:"exercise"`
	ExpectedTimeMs int32  `json:"expected_time_ms"`
}

type attemptResponse struct {
	Progress       progressResponse `json:"progress"`
	Quality        int32            `json:"quality"`
	MistakeCount   int32            `json:"mistake_count"`
	StreakExtended bool             `json:"streak_extended"`
	XP             int32            `json:"xp"`
}

type progressResponse struct {
	ItemID          int64      `json:"item_id"`
	LearnerID       int64      `json:"learner_id"`
	Tier            string     `json:"tier"`
	CorrectAttempts int32      `json:"correct_attempts"`
	TotalAttempts   int32      `json:"total_attempts"`
	EaseFactor      float64    `json:"ease_factor"`
	Repetitions     int32      `json:"repetitions"`
	IntervalDays    int32      `json:"interval_days"`
	LapseCount      int32      `json:"lapse_count"`
	Streak          int32      `json:"streak"`
	NextReviewAt    *time.Time `json:"next_review_at,omitempty"`
}

func toProgressResponse(p *entity.ProgressRecord) progressResponse {
	return progressResponse{
		ItemID:          p.ItemID,
		LearnerID:       p.LearnerID,
		Tier:            p.Tier.String(),
		CorrectAttempts: p.CorrectAttempts,
		TotalAttempts:   p.TotalAttempts,
		EaseFactor:      p.EaseFactor,
		Repetitions:     p.Repetitions,
		IntervalDays:    p.IntervalDays,
		LapseCount:      p.LapseCount,
		Streak:          p.Streak,
		NextReviewAt:    p.NextReviewAt,
	}
}

func (h *Handler) recordAttempt(c echo.Context) error {
	var req attemptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.review.RecordAttempt(c.Request().Context(), &usecase.AttemptInput{
		LearnerID:      req.LearnerID,
		ItemID:         req.ItemID,
		SessionID:      req.SessionID,
		Correct:        req.Correct,
		GivenAnswer:    req.GivenAnswer,
		CorrectAnswer:  req.CorrectAnswer,
		ResponseTimeMs: req.ResponseTimeMs,
		HintsUsed:      req.HintsUsed,
		Exercise:       req.Exercise,
		ExpectedTimeMs: req.ExpectedTimeMs,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, attemptResponse{
		Progress:       toProgressResponse(result.Progress),
		Quality:        result.Quality,
		MistakeCount:   result.MistakeCount,
		StreakExtended: result.StreakExtended,
		XP:             result.XP,
	})
}

func (h *Handler) buildQueue(c echo.Context) error {
	learnerID, err := parseLearnerID(c)
	if err != nil {
		return err
	}
	limit := int32(0)
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = int32(parsed)
	}

	queue, err := h.session.BuildQueue(c.Request().Context(), learnerID, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"queue": lo.Map(queue, func(p *entity.ProgressRecord, _ int) progressResponse {
			return toProgressResponse(p)
		}),
	})
}

func (h *Handler) recommendSessionSize(c echo.Context) error {
	learnerID, err := parseLearnerID(c)
	if err != nil {
		return err
	}
	size, err := h.session.RecommendSessionSize(c.Request().Context(), learnerID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_size": size})
}

func (h *Handler) listProgress(c echo.Context) error {
	learnerID, err := parseLearnerID(c)
	if err != nil {
		return err
	}
	query := &repository.ListProgressQuery{LearnerID: learnerID}
	query.Filter = c.QueryParam("filter")
	query.OrderBy = c.QueryParam("order_by")
	query.PageNo = queryInt32(c, "page_no", 1)
	query.PageSize = queryInt32(c, "page_size", 50)

	records, total, err := h.session.ListProgress(c.Request().Context(), query)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"records": lo.Map(records, func(p entity.ProgressRecord, _ int) progressResponse {
			return toProgressResponse(&p)
		}),
	})
}

func parseLearnerID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("learner_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid learner_id")
	}
	return id, nil
}

func queryInt32(c echo.Context, name string, fallback int32) int32 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return int32(parsed)
}
