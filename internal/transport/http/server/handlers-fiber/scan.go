package handlers_fiber

import (
	"net/http"

	"member-dedup/internal/mapper"
	api "member-dedup/internal/oapi"

	"github.com/gofiber/fiber/v2"
)

// PostDuplicatesScan starts the background all-pairs scan.
func (h *Handler) PostDuplicatesScan(c *fiber.Ctx) error {
	threshold, err := h.scanThreshold(c)
	if err != nil {
		return invalidBody(c)
	}
	job, err := h.uc.StartScanJob(threshold)
	if err != nil {
		h.log.Errorw("failed to start scan", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(mapper.ToOAPIScanJob(job))
}

// GetDuplicatesScan reports the latest background scan.
func (h *Handler) GetDuplicatesScan(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIScanJob(h.uc.ScanJobStatus()))
}

// PostMembersIdDuplicatesScan scores one member against the population.
func (h *Handler) PostMembersIdDuplicatesScan(c *fiber.Ctx, id string) error {
	threshold, err := h.scanThreshold(c)
	if err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.ScanForMember(c.Context(), id, threshold)
	if err != nil {
		h.log.Errorw("failed to scan member", "member_id", id, "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToOAPIScanResult(res))
}

// scanThreshold reads the optional threshold from the body, falling back to the configured default.
func (h *Handler) scanThreshold(c *fiber.Ctx) (int, error) {
	threshold := h.uc.DefaultThreshold()
	if len(c.Body()) == 0 {
		return threshold, nil
	}
	var body api.PostDuplicatesScanJSONRequestBody
	if err := c.BodyParser(&body); err != nil {
		return 0, err
	}
	if body.Threshold != nil {
		threshold = *body.Threshold
	}
	return threshold, nil
}
