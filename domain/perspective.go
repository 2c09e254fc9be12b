package domain

import "github.com/matuszelenak/trojsten-graph/vardate"

// ViewerConfirmation describes a status' confirmation as seen by one of the
// two participants.
type ViewerConfirmation int

const (
	Unconfirmed ViewerConfirmation = iota
	ConfirmedByMeOnly
	ConfirmedByPartnerOnly
	ConfirmedByBothParties
)

func (v ViewerConfirmation) String() string {
	switch v {
	case ConfirmedByMeOnly:
		return "mine"
	case ConfirmedByPartnerOnly:
		return "partner"
	case ConfirmedByBothParties:
		return "both"
	default:
		return "none"
	}
}

// Perspective maps the first/second confirmation bits of a relationship onto
// "mine" and "theirs" for a given participant.
type Perspective struct {
	viewerID  uint
	partnerID uint
	mine      Confirmation
	theirs    Confirmation
}

func NewPerspective(rel Relationship, viewerID uint) (Perspective, error) {
	switch viewerID {
	case rel.FirstPersonID:
		return Perspective{viewerID: viewerID, partnerID: rel.SecondPersonID, mine: ConfirmedByFirst, theirs: ConfirmedBySecond}, nil
	case rel.SecondPersonID:
		return Perspective{viewerID: viewerID, partnerID: rel.FirstPersonID, mine: ConfirmedBySecond, theirs: ConfirmedByFirst}, nil
	default:
		return Perspective{}, ErrNotParticipant
	}
}

func (p Perspective) ViewerID() uint  { return p.viewerID }
func (p Perspective) PartnerID() uint { return p.partnerID }

// Mine is the bit owned by the viewer.
func (p Perspective) Mine() Confirmation { return p.mine }

// Theirs is the bit owned by the partner.
func (p Perspective) Theirs() Confirmation { return p.theirs }

func (p Perspective) ConfirmedByMe(s RelationshipStatus) bool {
	return s.ConfirmedBy&p.mine != 0
}

func (p Perspective) ConfirmedByPartner(s RelationshipStatus) bool {
	return s.ConfirmedBy&p.theirs != 0
}

func (p Perspective) View(s RelationshipStatus) ViewerConfirmation {
	me, partner := p.ConfirmedByMe(s), p.ConfirmedByPartner(s)
	switch {
	case me && partner:
		return ConfirmedByBothParties
	case me:
		return ConfirmedByMeOnly
	case partner:
		return ConfirmedByPartnerOnly
	default:
		return Unconfirmed
	}
}

func (p Perspective) SetConfirmedForMe(s *RelationshipStatus, confirmed bool) {
	s.ConfirmedBy = setBit(s.ConfirmedBy, p.mine, confirmed)
}

func (p Perspective) SetConfirmedForPartner(s *RelationshipStatus, confirmed bool) {
	s.ConfirmedBy = setBit(s.ConfirmedBy, p.theirs, confirmed)
}

// StatusChange is the validated content of a StatusEdit.
type StatusChange struct {
	Status        StatusKind
	DateStart     *vardate.Date
	DateEnd       *vardate.Date
	Visible       bool
	ConfirmedByMe bool
}

// Apply writes c into s on behalf of the viewer. The viewer's bit follows
// c.ConfirmedByMe. When any other field changed the partner's confirmation
// is withdrawn. Apply reports whether such a change happened.
func (p Perspective) Apply(s *RelationshipStatus, c StatusChange) bool {
	changed := s.Status != c.Status ||
		!sameDate(s.DateStart, c.DateStart) ||
		!sameDate(s.DateEnd, c.DateEnd) ||
		s.Visible != c.Visible

	s.Status = c.Status
	s.DateStart = c.DateStart
	s.DateEnd = c.DateEnd
	s.Visible = c.Visible

	p.SetConfirmedForMe(s, c.ConfirmedByMe)
	if changed {
		p.SetConfirmedForPartner(s, false)
	}
	return changed
}

func setBit(v, bit Confirmation, on bool) Confirmation {
	if on {
		return v | bit
	}
	return v &^ bit
}

func sameDate(a, b *vardate.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
