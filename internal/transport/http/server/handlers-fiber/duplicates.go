package handlers_fiber

import (
	"net/http"

	"member-dedup/internal/entities"
	"member-dedup/internal/mapper"
	api "member-dedup/internal/oapi"

	"github.com/gofiber/fiber/v2"
)

// GetDuplicates lists queued pairs.
func (h *Handler) GetDuplicates(c *fiber.Ctx, params api.GetDuplicatesParams) error {
	filter := entities.DuplicateFilter{}
	if params.Status != nil {
		status, ok := entities.ParseStatus(string(*params.Status))
		if !ok {
			return c.Status(http.StatusBadRequest).JSON(errorResponse(api.INVALIDARGUMENT, "unknown status"))
		}
		filter.Status = &status
	}
	if params.MinScore != nil {
		filter.MinScore = *params.MinScore
	}
	if params.Limit != nil {
		filter.Limit = *params.Limit
	}
	if params.Offset != nil {
		filter.Offset = *params.Offset
	}

	pairs, err := h.uc.ListDuplicates(c.Context(), filter)
	if err != nil {
		h.log.Errorw("failed to list duplicates", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(api.DuplicatePairList{Items: mapper.ToOAPIPairList(pairs)})
}

// GetDuplicatesStats returns queue counts.
func (h *Handler) GetDuplicatesStats(c *fiber.Ctx) error {
	stats, err := h.uc.QueueStats(c.Context())
	if err != nil {
		h.log.Errorw("failed to get queue stats", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIQueueStats(stats))
}

// GetDuplicatesId returns one pair.
func (h *Handler) GetDuplicatesId(c *fiber.Ctx, id string) error {
	pair, err := h.uc.GetDuplicate(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIPair(*pair))
}

// PostDuplicatesIdReview records a not_duplicate or skipped decision.
func (h *Handler) PostDuplicatesIdReview(c *fiber.Ctx, id string) error {
	var body api.PostDuplicatesIdReviewJSONRequestBody
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}
	notes := ""
	if body.Notes != nil {
		notes = *body.Notes
	}
	pair, err := h.uc.MarkReviewed(c.Context(), id, entities.DuplicateStatus(body.Decision), body.Reviewer, notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIPair(*pair))
}

// GetDuplicatesIdMergeSuggestion proposes a merge configuration for a pair.
func (h *Handler) GetDuplicatesIdMergeSuggestion(c *fiber.Ctx, id string) error {
	s, err := h.uc.SuggestMerge(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIMergeSuggestion(*s))
}
