package delivery

import (
	"github.com/gofiber/fiber/v2"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/middleware"
)

type accountHandler struct {
	auc domain.AccountUseCase
}

func NewAccountHandler(app *fiber.App, uc domain.AccountUseCase) {
	handler := &accountHandler{
		auc: uc,
	}

	route := app.Group("/api")
	route.Post("/login", handler.Login)
	route.Post("/register", handler.Register)
	route.Get("/activate/:token", handler.Activate)
	route.Post("/password-reset", handler.RequestPasswordReset)
	route.Post("/password-reset/:token", handler.ResetPassword)
	route.Get("/get-authenticated-user", middleware.AuthRequired(), handler.AuthenticatedUser)
	route.Post("/account/change-password", middleware.AuthRequired(), handler.ChangePassword)
	route.Post("/account/change-email", middleware.AuthRequired(), handler.RequestEmailChange)
	route.Get("/account/change-email/:token", handler.ConfirmEmailChange)
}

func (ah *accountHandler) Login(c *fiber.Ctx) error {
	var req domain.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, nil, "Login")
	}

	resp, err := ah.auc.Login(c.Context(), req)
	if err != nil {
		return fail(c, err, &req.Email, "Login", "Login failed")
	}
	return ok(c, fiber.StatusOK, &req.Email, "Login", "Login successful", resp)
}

func (ah *accountHandler) AuthenticatedUser(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	person, err := ah.auc.AuthenticatedPerson(c.Context(), userToken.PersonID)
	if err != nil {
		return fail(c, err, username, "AuthenticatedUser", "Failed to retrieve user")
	}
	return ok(c, fiber.StatusOK, username, "AuthenticatedUser", "User retrieved successfully", person)
}

func (ah *accountHandler) Register(c *fiber.Ctx) error {
	var req domain.RegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, nil, "Register")
	}

	person, err := ah.auc.Register(c.Context(), req)
	if err != nil {
		return fail(c, err, &req.Email, "Register", "Registration failed")
	}
	return ok(c, fiber.StatusCreated, &req.Email, "Register", "Check your inbox to activate the account", person)
}

func (ah *accountHandler) Activate(c *fiber.Ctx) error {
	resp, err := ah.auc.Activate(c.Context(), c.Params("token"))
	if err != nil {
		return fail(c, err, nil, "Activate", "Invalid or used activation link")
	}
	return ok(c, fiber.StatusOK, resp.Person.Email, "Activate", "Account activated successfully", resp)
}

func (ah *accountHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req domain.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, nil, "RequestPasswordReset")
	}

	if err := ah.auc.RequestPasswordReset(c.Context(), req); err != nil {
		return fail(c, err, &req.Email, "RequestPasswordReset", "Failed to request a password reset")
	}
	return ok(c, fiber.StatusOK, &req.Email, "RequestPasswordReset", "If the account exists, a reset link was sent", nil)
}

func (ah *accountHandler) ResetPassword(c *fiber.Ctx) error {
	var req domain.PasswordResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, nil, "ResetPassword")
	}

	if err := ah.auc.ResetPassword(c.Context(), c.Params("token"), req); err != nil {
		return fail(c, err, nil, "ResetPassword", "Failed to reset the password")
	}
	return ok(c, fiber.StatusOK, nil, "ResetPassword", "Password changed successfully", nil)
}

func (ah *accountHandler) ChangePassword(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var req domain.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, username, "ChangePassword")
	}

	if err := ah.auc.ChangePassword(c.Context(), userToken.PersonID, req); err != nil {
		return fail(c, err, username, "ChangePassword", "Failed to change the password")
	}
	return ok(c, fiber.StatusOK, username, "ChangePassword", "Password changed successfully", nil)
}

func (ah *accountHandler) RequestEmailChange(c *fiber.Ctx) error {
	userToken, username := claimsOf(c)

	var req domain.ChangeEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, username, "RequestEmailChange")
	}

	if err := ah.auc.RequestEmailChange(c.Context(), userToken.PersonID, req); err != nil {
		return fail(c, err, username, "RequestEmailChange", "Failed to request an email change")
	}
	return ok(c, fiber.StatusOK, username, "RequestEmailChange", "Check the new inbox to confirm the change", nil)
}

func (ah *accountHandler) ConfirmEmailChange(c *fiber.Ctx) error {
	person, err := ah.auc.ConfirmEmailChange(c.Context(), c.Params("token"))
	if err != nil {
		return fail(c, err, nil, "ConfirmEmailChange", "Invalid or used confirmation link")
	}
	return ok(c, fiber.StatusOK, person.Email, "ConfirmEmailChange", "Email changed successfully", person)
}
