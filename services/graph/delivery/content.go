package delivery

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/middleware"
)

type contentHandler struct {
	cuc domain.ContentUseCase
}

// NewContentHandler registers the self-service routes. Routes acting on a
// subject accept ?user_override=<id> to edit a managed person.
func NewContentHandler(app *fiber.App, uc domain.ContentUseCase) {
	handler := &contentHandler{
		cuc: uc,
	}

	route := app.Group("/api")
	route.Get("/managed-people", middleware.AuthRequired(), handler.ManagedPeople)
	route.Get("/personal-info", middleware.AuthRequired(), handler.PersonalInfo)
	route.Put("/personal-info", middleware.AuthRequired(), handler.UpdatePersonalInfo)
	route.Get("/groups", middleware.AuthRequired(), handler.Groups)
	route.Get("/group-memberships", middleware.AuthRequired(), handler.Memberships)
	route.Post("/group-memberships", middleware.AuthRequired(), handler.SaveMemberships)
	route.Get("/relationships/mine", middleware.AuthRequired(), handler.MyRelationships)
	route.Put("/relationships/:id/statuses", middleware.AuthRequired(), handler.SaveStatuses)
	route.Post("/relationships", middleware.AuthRequired(), handler.ProposeStatus)
	route.Post("/account/delete", middleware.AuthRequired(), handler.DeletePerson)
	route.Post("/content-update-requests", middleware.AuthRequired(), handler.SubmitContentUpdate)
	route.Get("/notes", middleware.AuthRequired(), handler.Notes)
}

func (ch *contentHandler) subject(c *fiber.Ctx, claims *domain.Claims) (*domain.Person, error) {
	var override *uint
	if raw := c.Query("user_override"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, &domain.ValidationError{Errors: []domain.FieldError{{Row: -1, Field: "user_override", Message: "Invalid id"}}}
		}
		v := uint(id)
		override = &v
	}
	return ch.cuc.ResolveSubject(c.Context(), claims.PersonID, override)
}

func (ch *contentHandler) ManagedPeople(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	people, err := ch.cuc.ManagedPeople(c.Context(), userToken.PersonID)
	if err != nil {
		return fail(c, err, username, "ManagedPeople", "Failed to retrieve managed people")
	}
	return ok(c, fiber.StatusOK, username, "ManagedPeople", "Managed people retrieved successfully", people)
}

func (ch *contentHandler) PersonalInfo(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "PersonalInfo", "Person not found")
	}
	return ok(c, fiber.StatusOK, username, "PersonalInfo", "Personal info retrieved successfully", person)
}

func (ch *contentHandler) UpdatePersonalInfo(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var payload domain.PersonalInfoPayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "UpdatePersonalInfo")
	}

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "UpdatePersonalInfo", "Person not found")
	}

	updated, err := ch.cuc.UpdatePersonalInfo(c.Context(), person.ID, payload)
	if err != nil {
		return fail(c, err, username, "UpdatePersonalInfo", "Failed to update personal info")
	}
	return ok(c, fiber.StatusOK, username, "UpdatePersonalInfo", "Personal info updated successfully", updated)
}

func (ch *contentHandler) Groups(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	groups, err := ch.cuc.Groups(c.Context())
	if err != nil {
		return fail(c, err, username, "Groups", "Failed to retrieve groups")
	}
	return ok(c, fiber.StatusOK, username, "Groups", "Groups retrieved successfully", groups)
}

func (ch *contentHandler) Memberships(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "Memberships", "Person not found")
	}

	memberships, err := ch.cuc.Memberships(c.Context(), person.ID)
	if err != nil {
		return fail(c, err, username, "Memberships", "Failed to retrieve memberships")
	}
	return ok(c, fiber.StatusOK, username, "Memberships", "Memberships retrieved successfully", memberships)
}

func (ch *contentHandler) SaveMemberships(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var edits []domain.MembershipEdit
	if err := c.BodyParser(&edits); err != nil {
		return badBody(c, username, "SaveMemberships")
	}

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "SaveMemberships", "Person not found")
	}

	memberships, err := ch.cuc.SaveMemberships(c.Context(), person.ID, edits)
	if err != nil {
		return fail(c, err, username, "SaveMemberships", "Failed to save memberships")
	}
	return ok(c, fiber.StatusOK, username, "SaveMemberships", "Memberships saved successfully", memberships)
}

func (ch *contentHandler) MyRelationships(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "MyRelationships", "Person not found")
	}

	views, err := ch.cuc.MyRelationships(c.Context(), person.ID)
	if err != nil {
		return fail(c, err, username, "MyRelationships", "Failed to retrieve relationships")
	}
	return ok(c, fiber.StatusOK, username, "MyRelationships", "Relationships retrieved successfully", views)
}

func (ch *contentHandler) SaveStatuses(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	relationshipID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err, username, "SaveStatuses", "Invalid relationship")
	}

	var edits []domain.StatusEdit
	if err := c.BodyParser(&edits); err != nil {
		return badBody(c, username, "SaveStatuses")
	}

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "SaveStatuses", "Person not found")
	}

	view, err := ch.cuc.SaveStatuses(c.Context(), person.ID, relationshipID, edits)
	if err != nil {
		return fail(c, err, username, "SaveStatuses", "Failed to save statuses")
	}
	if view == nil {
		return ok(c, fiber.StatusOK, username, "SaveStatuses", "Relationship removed", nil)
	}
	return ok(c, fiber.StatusOK, username, "SaveStatuses", "Statuses saved successfully", view)
}

func (ch *contentHandler) ProposeStatus(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var payload domain.ProposalPayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "ProposeStatus")
	}

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "ProposeStatus", "Person not found")
	}

	view, err := ch.cuc.ProposeStatus(c.Context(), person.ID, payload)
	if err != nil {
		return fail(c, err, username, "ProposeStatus", "Failed to propose status")
	}
	return ok(c, fiber.StatusCreated, username, "ProposeStatus", "Status proposed successfully", view)
}

func (ch *contentHandler) DeletePerson(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var payload domain.DeletionPayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "DeletePerson")
	}

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "DeletePerson", "Person not found")
	}

	if err := ch.cuc.DeletePerson(c.Context(), userToken.PersonID, person.ID, payload.Confirmation); err != nil {
		return fail(c, err, username, "DeletePerson", "Failed to delete account")
	}
	return ok(c, fiber.StatusOK, username, "DeletePerson", "Account deleted successfully", nil)
}

type contentUpdatePayload struct {
	Content string `json:"content"`
}

func (ch *contentHandler) SubmitContentUpdate(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var payload contentUpdatePayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "SubmitContentUpdate")
	}

	req, err := ch.cuc.SubmitContentUpdate(c.Context(), userToken.PersonID, payload.Content)
	if err != nil {
		return fail(c, err, username, "SubmitContentUpdate", "Failed to submit the request")
	}
	return ok(c, fiber.StatusCreated, username, "SubmitContentUpdate", "Request submitted successfully", req)
}

func (ch *contentHandler) Notes(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	person, err := ch.subject(c, userToken)
	if err != nil {
		return fail(c, err, username, "Notes", "Person not found")
	}

	notes, err := ch.cuc.Notes(c.Context(), person.ID)
	if err != nil {
		return fail(c, err, username, "Notes", "Failed to retrieve notes")
	}
	return ok(c, fiber.StatusOK, username, "Notes", "Notes retrieved successfully", notes)
}
