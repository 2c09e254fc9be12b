package domain

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type TokenType int

const (
	TokenAccountActivation TokenType = iota + 1
	TokenPasswordReset
	TokenEmailChange
	TokenAuth
)

// Token is a single-use secret mailed to a person. ExtraData holds JSON,
// for example the requested address of an email change.
type Token struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type        TokenType `gorm:"not null" json:"type"`
	Token       string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"-"`
	PersonID    uint      `gorm:"not null;index" json:"person_id"`
	Person      Person    `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"-"`
	Valid       bool      `gorm:"not null" json:"valid"`
	ExtraData   string    `gorm:"type:text" json:"-"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
}

type InviteCode struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Code     string  `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	PersonID *uint   `json:"person_id"`
	Person   *Person `gorm:"foreignKey:PersonID;constraint:OnDelete:SET NULL" json:"-"`
}

func (c InviteCode) Claimed() bool {
	return c.PersonID != nil
}

// EmailPatternWhitelist admits self-registration for addresses matching
// Pattern, a regular expression.
type EmailPatternWhitelist struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Pattern string `gorm:"type:varchar(256);not null" json:"pattern"`
}

type ContentUpdateStatus int

const (
	ContentUpdateRequested ContentUpdateStatus = iota + 1
	ContentUpdateAccepted
	ContentUpdateRejected
)

func (s ContentUpdateStatus) Valid() bool {
	return s >= ContentUpdateRequested && s <= ContentUpdateRejected
}

// ContentUpdateRequest is a free-form correction sent to the staff.
type ContentUpdateRequest struct {
	ID            uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	SubmittedByID *uint               `json:"submitted_by_id"`
	SubmittedBy   *Person             `gorm:"foreignKey:SubmittedByID;constraint:OnDelete:SET NULL" json:"-"`
	Status        ContentUpdateStatus `gorm:"not null" json:"status"`
	Content       string              `gorm:"type:text;not null" json:"content"`
	DateCreated   time.Time           `gorm:"autoCreateTime" json:"date_created"`
	DateResolved  *time.Time          `json:"date_resolved"`
}

type Claims struct {
	PersonID    uint   `json:"person_id"`
	Email       string `json:"email"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email" valid:"required~Email is required,email~Invalid email"`
	Password string `json:"password" valid:"required~Password is required"`
	Remember bool   `json:"remember"`
}

type LoginResponse struct {
	Token  string  `json:"token"`
	Person *Person `json:"person"`
}

type RegistrationRequest struct {
	Email      string `json:"email" valid:"required~Email is required,email~Invalid email"`
	Password   string `json:"password" valid:"required~Password is required,length(8|128)~Password must have at least 8 characters"`
	FirstName  string `json:"first_name" valid:"required~First name is required,length(1|150)~First name is too long"`
	LastName   string `json:"last_name" valid:"required~Last name is required,length(1|150)~Last name is too long"`
	Gender     Gender `json:"gender" valid:"range(1|3)~Invalid gender"`
	InviteCode string `json:"invite_code" valid:"length(0|10)~Invalid invite code"`
}

type PasswordResetRequest struct {
	Email string `json:"email" valid:"required~Email is required,email~Invalid email"`
}

type PasswordResetConfirm struct {
	Password string `json:"password" valid:"required~Password is required,length(8|128)~Password must have at least 8 characters"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" valid:"required~Old password is required"`
	NewPassword string `json:"new_password" valid:"required~New password is required,length(8|128)~Password must have at least 8 characters"`
}

type ChangeEmailRequest struct {
	Email string `json:"email" valid:"required~Email is required,email~Invalid email"`
}

type AccountRepo interface {
	CreateToken(ctx context.Context, token *Token) error
	FindValidToken(ctx context.Context, tokenType TokenType, token string) (*Token, error)
	InvalidateToken(ctx context.Context, id uint) error
	ListEmailPatterns(ctx context.Context) ([]EmailPatternWhitelist, error)
	FindInviteCode(ctx context.Context, code string) (*InviteCode, error)
	SaveInviteCode(ctx context.Context, code *InviteCode) error
	CreateInviteCodes(ctx context.Context, codes []InviteCode) error
	CreateContentUpdateRequest(ctx context.Context, req *ContentUpdateRequest) error
	ListContentUpdateRequests(ctx context.Context) ([]ContentUpdateRequest, error)
	GetContentUpdateRequest(ctx context.Context, id uint) (*ContentUpdateRequest, error)
	SaveContentUpdateRequest(ctx context.Context, req *ContentUpdateRequest) error
}

// Mailer sends plain text mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type AccountUseCase interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AuthenticatedPerson(ctx context.Context, personID uint) (*Person, error)
	Register(ctx context.Context, req RegistrationRequest) (*Person, error)
	Activate(ctx context.Context, token string) (*LoginResponse, error)
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ResetPassword(ctx context.Context, token string, req PasswordResetConfirm) error
	ChangePassword(ctx context.Context, personID uint, req ChangePasswordRequest) error
	RequestEmailChange(ctx context.Context, personID uint, req ChangeEmailRequest) error
	ConfirmEmailChange(ctx context.Context, token string) (*Person, error)
}
