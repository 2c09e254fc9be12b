package domain

import (
	"context"
	"strings"
	"time"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

type Gender int

const (
	GenderMale Gender = iota + 1
	GenderFemale
	GenderOther
)

func (g Gender) Valid() bool {
	return g >= GenderMale && g <= GenderOther
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderOther:
		return "other"
	default:
		return "unknown"
	}
}

// Person is both a node of the graph and a login account. A person only
// shows up in graph output after opting in through Visible.
type Person struct {
	ID          uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string            `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email       *string           `gorm:"type:varchar(254);uniqueIndex" json:"email"`
	Password    string            `gorm:"type:varchar(128);not null" json:"-"`
	FirstName   string            `gorm:"type:varchar(150);not null" json:"first_name"`
	LastName    string            `gorm:"type:varchar(150);not null" json:"last_name"`
	MaidenName  *string           `gorm:"type:varchar(128)" json:"maiden_name"`
	Nickname    *string           `gorm:"type:varchar(128)" json:"nickname"`
	Gender      Gender            `gorm:"not null" json:"gender"`
	BirthDate   *vardate.Date     `json:"birth_date"`
	DeathDate   *vardate.Date     `json:"death_date"`
	Visible     bool              `gorm:"not null" json:"visible"`
	IsActive    bool              `gorm:"not null" json:"-"`
	IsStaff     bool              `gorm:"not null" json:"is_staff"`
	IsSuperuser bool              `gorm:"not null" json:"is_superuser"`
	DateJoined  time.Time         `gorm:"autoCreateTime" json:"date_joined"`
	LastLogin   *time.Time        `json:"last_login"`
	Memberships []GroupMembership `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Person) TableName() string {
	return "people"
}

// Name is the nickname when set, the full name otherwise.
func (p Person) Name() string {
	if p.Nickname != nil && *p.Nickname != "" {
		return *p.Nickname
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ManagementAuthority lets Manager edit the content of Subject, typically a
// parent acting for a child.
type ManagementAuthority struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ManagerID uint   `gorm:"not null;uniqueIndex:idx_management_pair" json:"manager_id"`
	Manager   Person `gorm:"foreignKey:ManagerID;constraint:OnDelete:CASCADE" json:"-"`
	SubjectID uint   `gorm:"not null;uniqueIndex:idx_management_pair" json:"subject_id"`
	Subject   Person `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
}

type PersonalInfoPayload struct {
	FirstName  string  `json:"first_name" valid:"required~First name is required,length(1|150)~First name is too long"`
	LastName   string  `json:"last_name" valid:"required~Last name is required,length(1|150)~Last name is too long"`
	MaidenName *string `json:"maiden_name" valid:"length(0|128)~Maiden name is too long"`
	Nickname   *string `json:"nickname" valid:"length(0|128)~Nickname is too long"`
	Gender     Gender  `json:"gender" valid:"range(1|3)~Invalid gender"`
	BirthDate  string  `json:"birth_date"`
	Visible    bool    `json:"visible"`
}

type DeletionPayload struct {
	Confirmation string `json:"confirmation" valid:"required~Confirmation is required"`
}

// DeletionPhrase must be typed verbatim before an account is erased.
const DeletionPhrase = "delete"

type PersonRepo interface {
	GetPersonByID(ctx context.Context, id uint) (*Person, error)
	FindPersonByEmail(ctx context.Context, email string) (*Person, error)
	FindPersonByUsername(ctx context.Context, username string) (*Person, error)
	CreatePerson(ctx context.Context, person *Person) error
	SavePerson(ctx context.Context, person *Person) error
	DeletePerson(ctx context.Context, id uint) error
	ListPeople(ctx context.Context) ([]Person, error)
	ListManagedPeople(ctx context.Context, managerID uint) ([]Person, error)
	IsManagedBy(ctx context.Context, managerID, subjectID uint) (bool, error)
	CreateManagementAuthorities(ctx context.Context, authorities []ManagementAuthority) (int64, error)
}
