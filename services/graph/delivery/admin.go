package delivery

import (
	"github.com/gofiber/fiber/v2"
	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/middleware"
)

type adminHandler struct {
	auc domain.AdminUseCase
}

func NewAdminHandler(app *fiber.App, uc domain.AdminUseCase) {
	handler := &adminHandler{
		auc: uc,
	}

	route := app.Group("/admin")
	route.Post("/invite-codes", middleware.AuthRequired(), middleware.StaffRequired(), handler.GenerateInviteCodes)
	route.Get("/invite-codes/:code/qr", middleware.AuthRequired(), middleware.StaffRequired(), handler.InviteCodeQR)
	route.Get("/content-update-requests", middleware.AuthRequired(), middleware.StaffRequired(), handler.ContentUpdateRequests)
	route.Put("/content-update-requests/:id", middleware.AuthRequired(), middleware.StaffRequired(), handler.ResolveContentUpdateRequest)
	route.Post("/derive-family", middleware.AuthRequired(), middleware.StaffRequired(), handler.DeriveFamily)
	route.Post("/generate-management", middleware.AuthRequired(), middleware.StaffRequired(), handler.GenerateManagement)
	route.Get("/people/:id/notes", middleware.AuthRequired(), middleware.StaffRequired(), handler.PersonNotes)
	route.Post("/people/:id/notes", middleware.AuthRequired(), middleware.StaffRequired(), handler.AddPersonNote)
}

type inviteCodesPayload struct {
	Count int `json:"count"`
}

func (ah *adminHandler) GenerateInviteCodes(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	var payload inviteCodesPayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "GenerateInviteCodes")
	}

	codes, err := ah.auc.GenerateInviteCodes(c.Context(), payload.Count)
	if err != nil {
		return fail(c, err, username, "GenerateInviteCodes", "Failed to generate invite codes")
	}
	return ok(c, fiber.StatusCreated, username, "GenerateInviteCodes", "Invite codes generated successfully", codes)
}

func (ah *adminHandler) InviteCodeQR(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	qr, err := ah.auc.InviteCodeQR(c.Context(), c.Params("code"))
	if err != nil {
		return fail(c, err, username, "InviteCodeQR", "Invite code not found")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, "inline; filename="+qr.Code+".png")

	config.PrintLogInfo(username, fiber.StatusOK, "InviteCodeQR")
	return c.Status(fiber.StatusOK).Send(qr.PNG)
}

func (ah *adminHandler) ContentUpdateRequests(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	reqs, err := ah.auc.ContentUpdateRequests(c.Context())
	if err != nil {
		return fail(c, err, username, "ContentUpdateRequests", "Failed to retrieve requests")
	}
	return ok(c, fiber.StatusOK, username, "ContentUpdateRequests", "Requests retrieved successfully", reqs)
}

type resolvePayload struct {
	Status domain.ContentUpdateStatus `json:"status"`
}

func (ah *adminHandler) ResolveContentUpdateRequest(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err, username, "ResolveContentUpdateRequest", "Invalid request id")
	}

	var payload resolvePayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "ResolveContentUpdateRequest")
	}

	req, err := ah.auc.ResolveContentUpdateRequest(c.Context(), id, payload.Status)
	if err != nil {
		return fail(c, err, username, "ResolveContentUpdateRequest", "Failed to resolve the request")
	}
	return ok(c, fiber.StatusOK, username, "ResolveContentUpdateRequest", "Request resolved successfully", req)
}

// DeriveFamily is a dry run unless ?apply=true is passed.
func (ah *adminHandler) DeriveFamily(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	report, err := ah.auc.DeriveFamily(c.Context(), c.QueryBool("apply"))
	if err != nil {
		return fail(c, err, username, "DeriveFamily", "Failed to derive family relationships")
	}
	return ok(c, fiber.StatusOK, username, "DeriveFamily", "Family relationships derived successfully", report)
}

func (ah *adminHandler) GenerateManagement(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	created, err := ah.auc.GenerateManagement(c.Context())
	if err != nil {
		return fail(c, err, username, "GenerateManagement", "Failed to generate management authorities")
	}
	return ok(c, fiber.StatusOK, username, "GenerateManagement", "Management authorities generated successfully", fiber.Map{"created": created})
}

func (ah *adminHandler) PersonNotes(c *fiber.Ctx) error {
	_, username := claimsOf(c)

	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err, username, "PersonNotes", "Invalid person id")
	}

	notes, err := ah.auc.PersonNotes(c.Context(), id)
	if err != nil {
		return fail(c, err, username, "PersonNotes", "Failed to retrieve notes")
	}
	return ok(c, fiber.StatusOK, username, "PersonNotes", "Notes retrieved successfully", notes)
}

func (ah *adminHandler) AddPersonNote(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err, username, "AddPersonNote", "Invalid person id")
	}

	var payload domain.NotePayload
	if err := c.BodyParser(&payload); err != nil {
		return badBody(c, username, "AddPersonNote")
	}

	note, err := ah.auc.AddPersonNote(c.Context(), userToken.PersonID, id, payload)
	if err != nil {
		return fail(c, err, username, "AddPersonNote", "Failed to add the note")
	}
	return ok(c, fiber.StatusCreated, username, "AddPersonNote", "Note added successfully", note)
}
