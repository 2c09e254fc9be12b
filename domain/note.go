package domain

import (
	"context"
	"time"
)

type NoteType int

const (
	NotePublic NoteType = iota + 1
	NotePrivate
)

func (t NoteType) Valid() bool {
	return t == NotePublic || t == NotePrivate
}

// NoteReason tells which end of a status a status note talks about.
type NoteReason int

const (
	ReasonStatusStart NoteReason = iota + 1
	ReasonStatusEnd
	ReasonOther
)

// PersonNote is free text attached to a person. Private notes are only
// shown to staff.
type PersonNote struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID    uint      `gorm:"not null;index" json:"person_id"`
	Person      Person    `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"-"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Type        NoteType  `gorm:"not null" json:"type"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
	CreatedByID *uint     `json:"created_by_id"`
	CreatedBy   *Person   `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
}

type GroupMembershipNote struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	MembershipID uint            `gorm:"not null;index" json:"membership_id"`
	Membership   GroupMembership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE" json:"-"`
	Text         string          `gorm:"type:text;not null" json:"text"`
	Type         NoteType        `gorm:"not null" json:"type"`
	DateCreated  time.Time       `gorm:"autoCreateTime" json:"date_created"`
	CreatedByID  *uint           `json:"created_by_id"`
	CreatedBy    *Person         `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
}

type RelationshipStatusNote struct {
	ID          uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	StatusID    uint               `gorm:"not null;index" json:"status_id"`
	Status      RelationshipStatus `gorm:"foreignKey:StatusID;constraint:OnDelete:CASCADE" json:"-"`
	Reason      NoteReason         `gorm:"not null" json:"reason"`
	Text        string             `gorm:"type:text;not null" json:"text"`
	Type        NoteType           `gorm:"not null" json:"type"`
	DateCreated time.Time          `gorm:"autoCreateTime" json:"date_created"`
	CreatedByID *uint              `json:"created_by_id"`
	CreatedBy   *Person            `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
}

// Notes collects everything written about one person: notes on the person,
// on their memberships and on the statuses of their relationships.
type Notes struct {
	Person      []PersonNote             `json:"person"`
	Memberships []GroupMembershipNote    `json:"memberships"`
	Statuses    []RelationshipStatusNote `json:"statuses"`
}

type NotePayload struct {
	Text string   `json:"text" valid:"required~Text is required"`
	Type NoteType `json:"type"`
}

type NoteRepo interface {
	CreatePersonNote(ctx context.Context, note *PersonNote) error
	CreateMembershipNote(ctx context.Context, note *GroupMembershipNote) error
	CreateStatusNote(ctx context.Context, note *RelationshipStatusNote) error
	ListNotes(ctx context.Context, personID uint, includePrivate bool) (*Notes, error)
}
