package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/middleware"
	"golang.org/x/crypto/bcrypt"
)

type accountUseCase struct {
	repo    domain.GraphRepo
	mailer  domain.Mailer
	TimeOut time.Duration
}

func NewAccountUseCase(repo domain.GraphRepo, mailer domain.Mailer, to time.Duration) domain.AccountUseCase {
	return &accountUseCase{
		repo:    repo,
		mailer:  mailer,
		TimeOut: to,
	}
}

// Mailed links are these paths with the token appended. Activation and
// email change open API routes directly, the password reset link opens the
// frontend form that posts the new password.
const (
	activationPath    = "/api/activate/"
	emailChangePath   = "/api/account/change-email/"
	passwordResetPath = "/password-reset/"
)

type emailChange struct {
	Email string `json:"email"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (au *accountUseCase) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, req, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	person, err := au.repo.FindPersonByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(person.Password), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !person.IsActive {
		return nil, domain.ErrInactiveAccount
	}

	return au.issueToken(ctx, person, req.Remember)
}

func (au *accountUseCase) issueToken(ctx context.Context, person *domain.Person, remember bool) (*domain.LoginResponse, error) {
	token, err := middleware.GenerateJWT(person, config.GetJWTTTL(remember))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	now := timeNow()
	person.LastLogin = &now
	if err := au.repo.SavePerson(ctx, person); err != nil {
		return nil, err
	}

	return &domain.LoginResponse{Token: token, Person: person}, nil
}

func (au *accountUseCase) AuthenticatedPerson(ctx context.Context, personID uint) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	person, err := au.repo.GetPersonByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if !person.IsActive {
		return nil, domain.ErrInactiveAccount
	}
	return person, nil
}

// whitelisted reports whether email matches one of the self-registration
// patterns. Broken patterns are ignored.
func (au *accountUseCase) whitelisted(ctx context.Context, email string) (bool, error) {
	patterns, err := au.repo.ListEmailPatterns(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			config.GetLogrusInstance().WithField("pattern", p.Pattern).Warn("Skipping invalid email pattern")
			continue
		}
		if re.MatchString(email) {
			return true, nil
		}
	}
	return false, nil
}

// Register creates an inactive account and mails its activation link. The
// address must either match the whitelist or come with an unclaimed invite
// code.
func (au *accountUseCase) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, req, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if _, err := au.repo.FindPersonByEmail(ctx, email); err == nil {
		verr.Add(-1, "email", "This email is already registered")
		return nil, verr
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var invite *domain.InviteCode
	if code := strings.TrimSpace(req.InviteCode); code != "" {
		found, err := au.repo.FindInviteCode(ctx, strings.ToUpper(code))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if found == nil || found.Claimed() {
			verr.Add(-1, "invite_code", "Invalid invite code")
			return nil, verr
		}
		invite = found
	} else {
		ok, err := au.whitelisted(ctx, email)
		if err != nil {
			return nil, err
		}
		if !ok {
			verr.Add(-1, "email", "Registration with this email requires an invite code")
			return nil, verr
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	person := &domain.Person{
		Username:  email,
		Email:     &email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Gender:    req.Gender,
	}
	activation := &domain.Token{Type: domain.TokenAccountActivation, Token: newSecret(), Valid: true}

	err = au.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		if err := tx.CreatePerson(ctx, person); err != nil {
			return err
		}
		if invite != nil {
			invite.PersonID = &person.ID
			if err := tx.SaveInviteCode(ctx, invite); err != nil {
				return err
			}
		}
		activation.PersonID = person.ID
		return tx.CreateToken(ctx, activation)
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		verr.Add(-1, "email", "This email is already registered")
		return nil, verr
	}
	if err != nil {
		return nil, err
	}

	link := config.GetSiteURL() + activationPath + activation.Token
	body := fmt.Sprintf("Hi %s,\n\nconfirm your registration by opening %s\n", person.FirstName, link)
	if err := au.mailer.Send(ctx, email, "Account activation", body); err != nil {
		return nil, err
	}
	return person, nil
}

// consume invalidates a valid token of the given type and returns it.
func (au *accountUseCase) consume(ctx context.Context, tx domain.GraphRepo, tokenType domain.TokenType, secret string) (*domain.Token, error) {
	token, err := tx.FindValidToken(ctx, tokenType, secret)
	if err != nil {
		return nil, err
	}
	if err := tx.InvalidateToken(ctx, token.ID); err != nil {
		return nil, err
	}
	return token, nil
}

func (au *accountUseCase) Activate(ctx context.Context, secret string) (*domain.LoginResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	var person *domain.Person
	err := au.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		token, err := au.consume(ctx, tx, domain.TokenAccountActivation, secret)
		if err != nil {
			return err
		}
		person, err = tx.GetPersonByID(ctx, token.PersonID)
		if err != nil {
			return err
		}
		person.IsActive = true
		return tx.SavePerson(ctx, person)
	})
	if err != nil {
		return nil, err
	}

	return au.issueToken(ctx, person, false)
}

// RequestPasswordReset mails a reset link. Unknown addresses are not
// reported.
func (au *accountUseCase) RequestPasswordReset(ctx context.Context, req domain.PasswordResetRequest) error {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, req, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}

	email := normalizeEmail(req.Email)
	person, err := au.repo.FindPersonByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := &domain.Token{Type: domain.TokenPasswordReset, Token: newSecret(), PersonID: person.ID, Valid: true}
	if err := au.repo.CreateToken(ctx, token); err != nil {
		return err
	}

	link := config.GetSiteURL() + passwordResetPath + token.Token
	body := fmt.Sprintf("Hi %s,\n\nset a new password at %s\n", person.FirstName, link)
	return au.mailer.Send(ctx, email, "Password reset", body)
}

func (au *accountUseCase) ResetPassword(ctx context.Context, secret string, req domain.PasswordResetConfirm) error {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, req, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return au.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		token, err := au.consume(ctx, tx, domain.TokenPasswordReset, secret)
		if err != nil {
			return err
		}
		person, err := tx.GetPersonByID(ctx, token.PersonID)
		if err != nil {
			return err
		}
		person.Password = string(hashed)
		return tx.SavePerson(ctx, person)
	})
}

func (au *accountUseCase) ChangePassword(ctx context.Context, personID uint, req domain.ChangePasswordRequest) error {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, req, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}

	person, err := au.repo.GetPersonByID(ctx, personID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(person.Password), []byte(req.OldPassword)); err != nil {
		verr.Add(-1, "old_password", "Wrong password")
		return verr
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	person.Password = string(hashed)
	return au.repo.SavePerson(ctx, person)
}

// RequestEmailChange mails a confirmation link to the new address. The
// address is only switched once the link is opened.
func (au *accountUseCase) RequestEmailChange(ctx context.Context, personID uint, req domain.ChangeEmailRequest) error {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, req, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}

	email := normalizeEmail(req.Email)
	if _, err := au.repo.FindPersonByEmail(ctx, email); err == nil {
		verr.Add(-1, "email", "This email is already registered")
		return verr
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	person, err := au.repo.GetPersonByID(ctx, personID)
	if err != nil {
		return err
	}

	extra, err := sonic.Marshal(emailChange{Email: email})
	if err != nil {
		return err
	}
	token := &domain.Token{Type: domain.TokenEmailChange, Token: newSecret(), PersonID: person.ID, Valid: true, ExtraData: string(extra)}
	if err := au.repo.CreateToken(ctx, token); err != nil {
		return err
	}

	link := config.GetSiteURL() + emailChangePath + token.Token
	body := fmt.Sprintf("Hi %s,\n\nconfirm your new email address by opening %s\n", person.FirstName, link)
	return au.mailer.Send(ctx, email, "Email change", body)
}

func (au *accountUseCase) ConfirmEmailChange(ctx context.Context, secret string) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	var person *domain.Person
	err := au.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		token, err := au.consume(ctx, tx, domain.TokenEmailChange, secret)
		if err != nil {
			return err
		}

		var change emailChange
		if err := sonic.UnmarshalString(token.ExtraData, &change); err != nil {
			return fmt.Errorf("reading email change token: %w", err)
		}

		person, err = tx.GetPersonByID(ctx, token.PersonID)
		if err != nil {
			return err
		}
		person.Email = &change.Email
		person.Username = change.Email
		return tx.SavePerson(ctx, person)
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}
