package domain

import (
	"context"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

type GroupCategory int

const (
	CategoryElementarySchool GroupCategory = iota + 1
	CategoryHighSchool
	CategoryUniversity
	CategorySeminar
	CategoryOther
)

func (c GroupCategory) Valid() bool {
	return c >= CategoryElementarySchool && c <= CategoryOther
}

type Group struct {
	ID       uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Category GroupCategory `gorm:"not null" json:"category"`
	ParentID *uint         `json:"parent_id"`
	Parent   *Group        `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
	Name     string        `gorm:"type:varchar(256);not null;uniqueIndex" json:"name"`
	Visible  bool          `gorm:"not null" json:"visible"`
}

// GroupMembership ties a person to a group for a period. A nil DateEnded
// means the membership is ongoing. Its visibility is independent of the
// group's.
type GroupMembership struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID    uint          `gorm:"not null;uniqueIndex:idx_membership_person_group" json:"person_id"`
	GroupID     uint          `gorm:"not null;uniqueIndex:idx_membership_person_group" json:"group_id"`
	Group       Group         `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	DateStarted *vardate.Date `json:"date_started"`
	DateEnded   *vardate.Date `json:"date_ended"`
	Visible     bool          `gorm:"not null" json:"visible"`
}

// MembershipEdit is one row of a membership batch submission. A nil ID
// creates a membership, Delete removes an existing one.
type MembershipEdit struct {
	ID          *uint  `json:"id"`
	GroupID     uint   `json:"group_id"`
	DateStarted string `json:"date_started"`
	DateEnded   string `json:"date_ended"`
	Visible     bool   `json:"visible"`
	Delete      bool   `json:"delete"`
}

type GroupRepo interface {
	ListGroups(ctx context.Context) ([]Group, error)
	GetGroupByID(ctx context.Context, id uint) (*Group, error)
	FindGroupByName(ctx context.Context, name string) (*Group, error)
	CreateGroup(ctx context.Context, group *Group) error
	ListMemberships(ctx context.Context, personID uint) ([]GroupMembership, error)
	SaveMembership(ctx context.Context, membership *GroupMembership) error
	DeleteMemberships(ctx context.Context, personID uint, ids []uint) error
}
