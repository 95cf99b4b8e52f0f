package oapi

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /duplicates)
	GetDuplicates(c *fiber.Ctx, params GetDuplicatesParams) error
	// (GET /duplicates/scan)
	GetDuplicatesScan(c *fiber.Ctx) error
	// (POST /duplicates/scan)
	PostDuplicatesScan(c *fiber.Ctx) error
	// (GET /duplicates/stats)
	GetDuplicatesStats(c *fiber.Ctx) error
	// (GET /duplicates/{id})
	GetDuplicatesId(c *fiber.Ctx, id string) error
	// (GET /duplicates/{id}/merge-suggestion)
	GetDuplicatesIdMergeSuggestion(c *fiber.Ctx, id string) error
	// (POST /duplicates/{id}/merge)
	PostDuplicatesIdMerge(c *fiber.Ctx, id string) error
	// (POST /duplicates/{id}/review)
	PostDuplicatesIdReview(c *fiber.Ctx, id string) error
	// (POST /members/{id}/duplicates/scan)
	PostMembersIdDuplicatesScan(c *fiber.Ctx, id string) error
	// (GET /merges)
	GetMerges(c *fiber.Ctx, params GetMergesParams) error
	// (GET /merges/{id})
	GetMergesId(c *fiber.Ctx, id string) error
	// (POST /merges/{id}/undo)
	PostMergesIdUndo(c *fiber.Ctx, id string) error
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// GetDuplicates operation middleware
func (siw *ServerInterfaceWrapper) GetDuplicates(c *fiber.Ctx) error {
	var params GetDuplicatesParams

	if v := c.Query("status"); v != "" {
		status := DuplicateStatus(v)
		params.Status = &status
	}
	var err error
	if params.MinScore, err = queryInt(c, "min_score"); err != nil {
		return err
	}
	if params.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}
	if params.Offset, err = queryInt(c, "offset"); err != nil {
		return err
	}

	return siw.Handler.GetDuplicates(c, params)
}

// GetDuplicatesScan operation middleware
func (siw *ServerInterfaceWrapper) GetDuplicatesScan(c *fiber.Ctx) error {
	return siw.Handler.GetDuplicatesScan(c)
}

// PostDuplicatesScan operation middleware
func (siw *ServerInterfaceWrapper) PostDuplicatesScan(c *fiber.Ctx) error {
	return siw.Handler.PostDuplicatesScan(c)
}

// GetDuplicatesStats operation middleware
func (siw *ServerInterfaceWrapper) GetDuplicatesStats(c *fiber.Ctx) error {
	return siw.Handler.GetDuplicatesStats(c)
}

// GetDuplicatesId operation middleware
func (siw *ServerInterfaceWrapper) GetDuplicatesId(c *fiber.Ctx) error {
	return siw.Handler.GetDuplicatesId(c, c.Params("id"))
}

// GetDuplicatesIdMergeSuggestion operation middleware
func (siw *ServerInterfaceWrapper) GetDuplicatesIdMergeSuggestion(c *fiber.Ctx) error {
	return siw.Handler.GetDuplicatesIdMergeSuggestion(c, c.Params("id"))
}

// PostDuplicatesIdMerge operation middleware
func (siw *ServerInterfaceWrapper) PostDuplicatesIdMerge(c *fiber.Ctx) error {
	return siw.Handler.PostDuplicatesIdMerge(c, c.Params("id"))
}

// PostDuplicatesIdReview operation middleware
func (siw *ServerInterfaceWrapper) PostDuplicatesIdReview(c *fiber.Ctx) error {
	return siw.Handler.PostDuplicatesIdReview(c, c.Params("id"))
}

// PostMembersIdDuplicatesScan operation middleware
func (siw *ServerInterfaceWrapper) PostMembersIdDuplicatesScan(c *fiber.Ctx) error {
	return siw.Handler.PostMembersIdDuplicatesScan(c, c.Params("id"))
}

// GetMerges operation middleware
func (siw *ServerInterfaceWrapper) GetMerges(c *fiber.Ctx) error {
	var params GetMergesParams

	if v := c.Query("member_id"); v != "" {
		params.MemberId = &v
	}
	var err error
	if params.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}

	return siw.Handler.GetMerges(c, params)
}

// GetMergesId operation middleware
func (siw *ServerInterfaceWrapper) GetMergesId(c *fiber.Ctx) error {
	return siw.Handler.GetMergesId(c, c.Params("id"))
}

// PostMergesIdUndo operation middleware
func (siw *ServerInterfaceWrapper) PostMergesIdUndo(c *fiber.Ctx) error {
	return siw.Handler.PostMergesIdUndo(c, c.Params("id"))
}

func queryInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return &v, nil
}

// FiberServerOptions provides options for the Fiber server.
type FiberServerOptions struct {
	BaseURL     string
	Middlewares []fiber.Handler
}

// RegisterHandlers registers every API route on router.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, FiberServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router fiber.Router, si ServerInterface, options FiberServerOptions) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	for _, m := range options.Middlewares {
		router.Use(m)
	}

	// Static segments are registered before their parameterized siblings.
	router.Get(options.BaseURL+"/duplicates", wrapper.GetDuplicates)
	router.Get(options.BaseURL+"/duplicates/scan", wrapper.GetDuplicatesScan)
	router.Post(options.BaseURL+"/duplicates/scan", wrapper.PostDuplicatesScan)
	router.Get(options.BaseURL+"/duplicates/stats", wrapper.GetDuplicatesStats)
	router.Get(options.BaseURL+"/duplicates/:id", wrapper.GetDuplicatesId)
	router.Get(options.BaseURL+"/duplicates/:id/merge-suggestion", wrapper.GetDuplicatesIdMergeSuggestion)
	router.Post(options.BaseURL+"/duplicates/:id/merge", wrapper.PostDuplicatesIdMerge)
	router.Post(options.BaseURL+"/duplicates/:id/review", wrapper.PostDuplicatesIdReview)
	router.Post(options.BaseURL+"/members/:id/duplicates/scan", wrapper.PostMembersIdDuplicatesScan)
	router.Get(options.BaseURL+"/merges", wrapper.GetMerges)
	router.Get(options.BaseURL+"/merges/:id", wrapper.GetMergesId)
	router.Post(options.BaseURL+"/merges/:id/undo", wrapper.PostMergesIdUndo)
}
