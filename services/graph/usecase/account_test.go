package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/middleware"
)

func tokenOf(t *testing.T, repo *memRepo, tokenType domain.TokenType) string {
	t.Helper()
	for _, id := range sortedIDs(repo.tokens, nil) {
		if tok := repo.tokens[id]; tok.Type == tokenType && tok.Valid {
			return tok.Token
		}
	}
	t.Fatalf("no valid token of type %d", tokenType)
	return ""
}

func registration(email string) domain.RegistrationRequest {
	return domain.RegistrationRequest{
		Email:     email,
		Password:  "correct horse",
		FirstName: "Anna",
		LastName:  "Kovacova",
		Gender:    domain.GenderFemale,
	}
}

func TestRegisterActivateLogin(t *testing.T) {
	repo := setup(t)
	repo.patterns = []domain.EmailPatternWhitelist{{ID: 1, Pattern: `@trojsten\.sk$`}}
	mailer := &memMailer{}
	uc := NewAccountUseCase(repo, mailer, 5*time.Second)
	ctx := context.Background()

	person, err := uc.Register(ctx, registration("Anna@Trojsten.sk"))
	require.NoError(t, err)
	assert.Equal(t, "anna@trojsten.sk", *person.Email)
	assert.False(t, repo.people[person.ID].IsActive)

	secret := tokenOf(t, repo, domain.TokenAccountActivation)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "anna@trojsten.sk", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "/api/activate/"+secret)

	_, err = uc.Login(ctx, domain.LoginRequest{Email: "anna@trojsten.sk", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrInactiveAccount)

	activated, err := uc.Activate(ctx, secret)
	require.NoError(t, err)
	assert.NotEmpty(t, activated.Token)
	assert.True(t, repo.people[person.ID].IsActive)
	assert.Equal(t, fixedNow, *repo.people[person.ID].LastLogin)

	_, err = uc.Activate(ctx, secret)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Login(ctx, domain.LoginRequest{Email: "anna@trojsten.sk", Password: "wrong password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = uc.Login(ctx, domain.LoginRequest{Email: "nobody@trojsten.sk", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	resp, err := uc.Login(ctx, domain.LoginRequest{Email: "ANNA@trojsten.sk", Password: "correct horse", Remember: true})
	require.NoError(t, err)
	claims, err := middleware.VerifyJWT(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, person.ID, claims.PersonID)

	me, err := uc.AuthenticatedPerson(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, person.ID, me.ID)
}

func TestRegisterRequiresWhitelistOrInvite(t *testing.T) {
	repo := setup(t)
	repo.patterns = []domain.EmailPatternWhitelist{{ID: 1, Pattern: `(`}, {ID: 2, Pattern: `@trojsten\.sk$`}}
	require.NoError(t, repo.SaveInviteCode(context.Background(), &domain.InviteCode{Code: "ABCDEFGHIJ"}))
	uc := NewAccountUseCase(repo, &memMailer{}, 5*time.Second)
	ctx := context.Background()

	_, err := uc.Register(ctx, registration("anna@gmail.com"))
	assert.Equal(t, []string{"email"}, validationFields(t, err))

	withCode := registration("anna@gmail.com")
	withCode.InviteCode = "abcdefghij"
	person, err := uc.Register(ctx, withCode)
	require.NoError(t, err)

	invite, err := repo.FindInviteCode(ctx, "ABCDEFGHIJ")
	require.NoError(t, err)
	require.True(t, invite.Claimed())
	assert.Equal(t, person.ID, *invite.PersonID)

	again := registration("boris@gmail.com")
	again.InviteCode = "ABCDEFGHIJ"
	_, err = uc.Register(ctx, again)
	assert.Equal(t, []string{"invite_code"}, validationFields(t, err))

	_, err = uc.Register(ctx, registration("anna@gmail.com"))
	assert.Equal(t, []string{"email"}, validationFields(t, err))
	assert.Len(t, repo.people, 1)
}

func TestPasswordReset(t *testing.T) {
	repo := setup(t)
	repo.patterns = []domain.EmailPatternWhitelist{{ID: 1, Pattern: `.*`}}
	mailer := &memMailer{}
	uc := NewAccountUseCase(repo, mailer, 5*time.Second)
	ctx := context.Background()

	person, err := uc.Register(ctx, registration("anna@example.com"))
	require.NoError(t, err)
	_, err = uc.Activate(ctx, tokenOf(t, repo, domain.TokenAccountActivation))
	require.NoError(t, err)

	require.NoError(t, uc.RequestPasswordReset(ctx, domain.PasswordResetRequest{Email: "ghost@example.com"}))
	assert.Len(t, mailer.sent, 1)

	require.NoError(t, uc.RequestPasswordReset(ctx, domain.PasswordResetRequest{Email: "anna@example.com"}))
	require.Len(t, mailer.sent, 2)
	secret := tokenOf(t, repo, domain.TokenPasswordReset)
	assert.Contains(t, mailer.sent[1].body, secret)

	require.NoError(t, uc.ResetPassword(ctx, secret, domain.PasswordResetConfirm{Password: "battery staple"}))
	assert.ErrorIs(t, uc.ResetPassword(ctx, secret, domain.PasswordResetConfirm{Password: "battery staple"}), domain.ErrNotFound)

	_, err = uc.Login(ctx, domain.LoginRequest{Email: "anna@example.com", Password: "battery staple"})
	require.NoError(t, err)

	err = uc.ChangePassword(ctx, person.ID, domain.ChangePasswordRequest{OldPassword: "correct horse", NewPassword: "something else"})
	assert.Equal(t, []string{"old_password"}, validationFields(t, err))
	require.NoError(t, uc.ChangePassword(ctx, person.ID, domain.ChangePasswordRequest{OldPassword: "battery staple", NewPassword: "something else"}))
}

func TestEmailChange(t *testing.T) {
	repo := setup(t)
	email := "anna@example.com"
	anna := repo.addPerson(domain.Person{Username: email, Email: &email, FirstName: "Anna", IsActive: true})
	taken := "boris@example.com"
	repo.addPerson(domain.Person{Username: taken, Email: &taken})
	mailer := &memMailer{}
	uc := NewAccountUseCase(repo, mailer, 5*time.Second)
	ctx := context.Background()

	err := uc.RequestEmailChange(ctx, anna.ID, domain.ChangeEmailRequest{Email: taken})
	assert.Equal(t, []string{"email"}, validationFields(t, err))

	require.NoError(t, uc.RequestEmailChange(ctx, anna.ID, domain.ChangeEmailRequest{Email: "Anna@New.org"}))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "anna@new.org", mailer.sent[0].to)
	assert.Equal(t, email, *repo.people[anna.ID].Email)

	secret := tokenOf(t, repo, domain.TokenEmailChange)
	assert.Contains(t, mailer.sent[0].body, "http://localhost:8000/api/account/change-email/"+secret)

	updated, err := uc.ConfirmEmailChange(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, "anna@new.org", *updated.Email)
	assert.Equal(t, "anna@new.org", repo.people[anna.ID].Username)
}
