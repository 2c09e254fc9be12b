package delivery

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/middleware"
)

type graphHandler struct {
	guc domain.GraphUseCase
}

func NewGraphHandler(app *fiber.App, uc domain.GraphUseCase) {
	handler := &graphHandler{
		guc: uc,
	}

	route := app.Group("/api")
	route.Get("/graph", middleware.AuthRequired(), handler.Graph)
	route.Get("/people", middleware.AuthRequired(), handler.People)
	route.Get("/relationships", middleware.AuthRequired(), handler.Relationships)
}

// notVisible answers the privacy gate with 200 and an error field.
func notVisible(c *fiber.Ctx, username *string, functionName string) error {
	config.PrintLogInfo(username, fiber.StatusOK, functionName)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"error": domain.ErrNotVisible.Error(),
	})
}

func (gh *graphHandler) Graph(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	graph, err := gh.guc.Graph(c.Context(), userToken.PersonID)
	if errors.Is(err, domain.ErrNotVisible) {
		return notVisible(c, username, "Graph")
	}
	if err != nil {
		return fail(c, err, username, "Graph", "Failed to load the graph")
	}

	config.PrintLogInfo(username, fiber.StatusOK, "Graph")
	return c.Status(fiber.StatusOK).JSON(graph)
}

func (gh *graphHandler) People(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	nodes, err := gh.guc.People(c.Context(), userToken.PersonID)
	if errors.Is(err, domain.ErrNotVisible) {
		return notVisible(c, username, "People")
	}
	if err != nil {
		return fail(c, err, username, "People", "Failed to load people")
	}

	return ok(c, fiber.StatusOK, username, "People", "People retrieved successfully", nodes)
}

func (gh *graphHandler) Relationships(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	edges, err := gh.guc.Relationships(c.Context(), userToken.PersonID)
	if errors.Is(err, domain.ErrNotVisible) {
		return notVisible(c, username, "Relationships")
	}
	if err != nil {
		return fail(c, err, username, "Relationships", "Failed to load relationships")
	}

	return ok(c, fiber.StatusOK, username, "Relationships", "Relationships retrieved successfully", edges)
}
