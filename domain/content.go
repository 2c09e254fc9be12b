package domain

import (
	"context"
	"time"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

// StatusView is a status as shown to one of its two participants.
type StatusView struct {
	ID                 uint               `json:"id"`
	Status             StatusKind         `json:"status"`
	DateStart          *vardate.Date      `json:"date_start"`
	DateEnd            *vardate.Date      `json:"date_end"`
	Visible            bool               `json:"visible"`
	ConfirmedByMe      bool               `json:"confirmed_by_me"`
	ConfirmedByPartner bool               `json:"confirmed_by_partner"`
	Confirmation       ViewerConfirmation `json:"confirmation"`
	Duration           vardate.Delta      `json:"duration"`
}

// RelationshipView is a relationship from the point of view of one
// participant. It lists every status, confirmed or not.
type RelationshipView struct {
	ID          uint          `json:"id"`
	PartnerID   uint          `json:"partner_id"`
	PartnerName string        `json:"partner_name"`
	Statuses    []StatusView  `json:"statuses"`
	Duration    vardate.Delta `json:"duration"`
}

// NewRelationshipView needs rel with both people and all statuses loaded.
func NewRelationshipView(rel Relationship, viewerID uint, today time.Time) (RelationshipView, error) {
	p, err := NewPerspective(rel, viewerID)
	if err != nil {
		return RelationshipView{}, err
	}

	partner := rel.SecondPerson
	if p.PartnerID() == rel.FirstPersonID {
		partner = rel.FirstPerson
	}

	statuses := RecentStatuses(rel, false)
	v := RelationshipView{
		ID:          rel.ID,
		PartnerID:   p.PartnerID(),
		PartnerName: partner.Name(),
		Statuses:    make([]StatusView, 0, len(statuses)),
		Duration:    TotalDuration(statuses, today),
	}
	for _, s := range statuses {
		v.Statuses = append(v.Statuses, StatusView{
			ID:                 s.ID,
			Status:             s.Status,
			DateStart:          s.DateStart,
			DateEnd:            s.DateEnd,
			Visible:            s.Visible,
			ConfirmedByMe:      p.ConfirmedByMe(s),
			ConfirmedByPartner: p.ConfirmedByPartner(s),
			Confirmation:       p.View(s),
			Duration:           StatusDuration(s, today),
		})
	}
	return v, nil
}

// ContentUseCase covers self-service editing. Every call acts on a subject
// that the actor either is or manages.
type ContentUseCase interface {
	ResolveSubject(ctx context.Context, actorID uint, override *uint) (*Person, error)
	ManagedPeople(ctx context.Context, actorID uint) ([]Person, error)
	PersonalInfo(ctx context.Context, subjectID uint) (*Person, error)
	UpdatePersonalInfo(ctx context.Context, subjectID uint, payload PersonalInfoPayload) (*Person, error)
	Groups(ctx context.Context) ([]Group, error)
	Memberships(ctx context.Context, subjectID uint) ([]GroupMembership, error)
	SaveMemberships(ctx context.Context, subjectID uint, edits []MembershipEdit) ([]GroupMembership, error)
	MyRelationships(ctx context.Context, subjectID uint) ([]RelationshipView, error)
	SaveStatuses(ctx context.Context, subjectID, relationshipID uint, edits []StatusEdit) (*RelationshipView, error)
	ProposeStatus(ctx context.Context, subjectID uint, payload ProposalPayload) (*RelationshipView, error)
	DeletePerson(ctx context.Context, actorID, subjectID uint, confirmation string) error
	SubmitContentUpdate(ctx context.Context, personID uint, content string) (*ContentUpdateRequest, error)
	Notes(ctx context.Context, subjectID uint) (*Notes, error)
}
