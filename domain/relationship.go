package domain

import (
	"context"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

type StatusKind int

const (
	StatusBloodRelative StatusKind = iota + 1
	StatusSibling
	StatusParentChild
	StatusMarried
	StatusEngaged
	StatusDating
	StatusRumour
)

// RomanticKinds are the statuses that count as a romantic relationship. A
// rumour does not.
var RomanticKinds = []StatusKind{StatusDating, StatusEngaged, StatusMarried}

// FamilyKinds are the statuses derived from blood ties.
var FamilyKinds = []StatusKind{StatusBloodRelative, StatusSibling, StatusParentChild}

func (k StatusKind) Valid() bool {
	return k >= StatusBloodRelative && k <= StatusRumour
}

func (k StatusKind) IsRomantic() bool {
	return k == StatusDating || k == StatusEngaged || k == StatusMarried
}

func (k StatusKind) String() string {
	switch k {
	case StatusBloodRelative:
		return "Blood relative"
	case StatusSibling:
		return "Sibling"
	case StatusParentChild:
		return "Parent/child"
	case StatusMarried:
		return "Married"
	case StatusEngaged:
		return "Engaged"
	case StatusDating:
		return "Dating"
	case StatusRumour:
		return "Rumour"
	default:
		return "Unknown"
	}
}

// Confirmation is a two-bit set: bit 0 belongs to the first person of the
// relationship, bit 1 to the second.
type Confirmation uint8

const (
	ConfirmedByNone   Confirmation = 0
	ConfirmedByFirst  Confirmation = 1 << 0
	ConfirmedBySecond Confirmation = 1 << 1
	ConfirmedByBoth                = ConfirmedByFirst | ConfirmedBySecond
)

// Relationship is an unordered pair of distinct people. The ordering of
// FirstPerson and SecondPerson only matters for the confirmation bits.
type Relationship struct {
	ID             uint                 `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstPersonID  uint                 `gorm:"not null;index" json:"first_person_id"`
	FirstPerson    Person               `gorm:"foreignKey:FirstPersonID;constraint:OnDelete:CASCADE" json:"-"`
	SecondPersonID uint                 `gorm:"not null;index" json:"second_person_id"`
	SecondPerson   Person               `gorm:"foreignKey:SecondPersonID;constraint:OnDelete:CASCADE" json:"-"`
	Statuses       []RelationshipStatus `gorm:"foreignKey:RelationshipID;constraint:OnDelete:CASCADE" json:"statuses"`
}

// RelationshipStatus is one dated, typed episode of a relationship.
type RelationshipStatus struct {
	ID             uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	RelationshipID uint          `gorm:"not null;index" json:"relationship_id"`
	Status         StatusKind    `gorm:"not null" json:"status"`
	DateStart      *vardate.Date `json:"date_start"`
	DateEnd        *vardate.Date `json:"date_end"`
	ConfirmedBy    Confirmation  `gorm:"not null" json:"confirmed_by"`
	Visible        bool          `gorm:"not null" json:"visible"`
}

// NewRelationship pairs two people, rejecting a self pair.
func NewRelationship(firstID, secondID uint) (Relationship, error) {
	if firstID == secondID {
		return Relationship{}, ErrSelfRelationship
	}
	return Relationship{FirstPersonID: firstID, SecondPersonID: secondID}, nil
}

// Involves reports whether personID is one of the two participants.
func (r Relationship) Involves(personID uint) bool {
	return r.FirstPersonID == personID || r.SecondPersonID == personID
}

// PartnerOf returns the participant that is not personID.
func (r Relationship) PartnerOf(personID uint) (uint, error) {
	switch personID {
	case r.FirstPersonID:
		return r.SecondPersonID, nil
	case r.SecondPersonID:
		return r.FirstPersonID, nil
	default:
		return 0, ErrNotParticipant
	}
}

// IsVisible requires both participants to have opted in and at least one
// visible status. FirstPerson and SecondPerson must be loaded.
func (r Relationship) IsVisible() bool {
	if !r.FirstPerson.Visible || !r.SecondPerson.Visible {
		return false
	}
	for _, s := range r.Statuses {
		if s.Visible {
			return true
		}
	}
	return false
}

// IsConfirmed reports whether both participants confirmed the status.
func (s RelationshipStatus) IsConfirmed() bool {
	return s.ConfirmedBy == ConfirmedByBoth
}

// StatusEdit is one row of a status batch submission, written from the
// submitter's point of view.
type StatusEdit struct {
	ID            *uint      `json:"id"`
	Status        StatusKind `json:"status"`
	DateStart     string     `json:"date_start"`
	DateEnd       string     `json:"date_end"`
	Visible       bool       `json:"visible"`
	ConfirmedByMe bool       `json:"confirmed_by_me"`
	Delete        bool       `json:"delete"`
}

// ProposalPayload opens or extends a relationship with a new status.
type ProposalPayload struct {
	OtherPersonID uint       `json:"other_person_id"`
	Status        StatusEdit `json:"status"`
}

type RelationshipRepo interface {
	ListRelationships(ctx context.Context) ([]Relationship, error)
	ListRelationshipsForPeople(ctx context.Context, personIDs []uint) ([]Relationship, error)
	ListRelationshipsOf(ctx context.Context, personID uint) ([]Relationship, error)
	GetRelationshipOf(ctx context.Context, relationshipID, personID uint) (*Relationship, error)
	FindRelationship(ctx context.Context, firstID, secondID uint) (*Relationship, error)
	GetOrCreateRelationship(ctx context.Context, firstID, secondID uint) (*Relationship, bool, error)
	DeleteRelationship(ctx context.Context, id uint) error
	SaveStatus(ctx context.Context, status *RelationshipStatus) error
	DeleteStatuses(ctx context.Context, relationshipID uint, ids []uint) error
	CountStatuses(ctx context.Context, relationshipID uint) (int64, error)
}
