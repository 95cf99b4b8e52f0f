package handlers_fiber

import (
	"net/http"

	"member-dedup/internal/mapper"
	api "member-dedup/internal/oapi"

	"github.com/gofiber/fiber/v2"
)

// PostDuplicatesIdMerge merges a pending pair.
func (h *Handler) PostDuplicatesIdMerge(c *fiber.Ctx, id string) error {
	var body api.PostDuplicatesIdMergeJSONRequestBody
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}
	history, err := h.uc.Merge(c.Context(), id, mapper.FromOAPIMergeConfig(body.Config), body.PerformedBy)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIMergeResponse(*history))
}

// GetMerges lists merge history, optionally for one member.
func (h *Handler) GetMerges(c *fiber.Ctx, params api.GetMergesParams) error {
	memberID := ""
	if params.MemberId != nil {
		memberID = *params.MemberId
	}
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	list, err := h.uc.ListMergeHistory(c.Context(), memberID, limit)
	if err != nil {
		h.log.Errorw("failed to list merge history", "member_id", memberID, "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIMergeHistoryList(list))
}

// GetMergesId returns one merge history entry.
func (h *Handler) GetMergesId(c *fiber.Ctx, id string) error {
	history, err := h.uc.GetMergeHistory(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIMergeHistory(*history))
}

// PostMergesIdUndo restores the member deleted by a merge.
func (h *Handler) PostMergesIdUndo(c *fiber.Ctx, id string) error {
	var body api.PostMergesIdUndoJSONRequestBody
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}
	history, err := h.uc.Undo(c.Context(), id, body.PerformedBy)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIMergeHistory(*history))
}
