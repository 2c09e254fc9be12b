package repository

import (
	"context"
	"fmt"

	"github.com/matuszelenak/trojsten-graph/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *graphRepository) CreatePersonNote(ctx context.Context, note *domain.PersonNote) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(note).Error; err != nil {
		return fmt.Errorf("could not create person note: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) CreateMembershipNote(ctx context.Context, note *domain.GroupMembershipNote) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(note).Error; err != nil {
		return fmt.Errorf("could not create membership note: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) CreateStatusNote(ctx context.Context, note *domain.RelationshipStatusNote) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(note).Error; err != nil {
		return fmt.Errorf("could not create status note: %w", mapError(err))
	}
	return nil
}

// ListNotes loads the notes on a person, their memberships and the statuses
// of their relationships. Private notes are left out unless includePrivate.
func (r *graphRepository) ListNotes(ctx context.Context, personID uint, includePrivate bool) (*domain.Notes, error) {
	db := r.db.WithContext(ctx)
	scoped := func(q *gorm.DB) *gorm.DB {
		if !includePrivate {
			q = q.Where("type = ?", domain.NotePublic)
		}
		return q.Order("id")
	}

	notes := &domain.Notes{}
	if err := scoped(db.Where("person_id = ?", personID)).Find(&notes.Person).Error; err != nil {
		return nil, err
	}

	memberships := db.Model(&domain.GroupMembership{}).
		Select("id").
		Where("person_id = ?", personID)
	if err := scoped(db.Where("membership_id IN (?)", memberships)).Find(&notes.Memberships).Error; err != nil {
		return nil, err
	}

	statuses := db.Model(&domain.RelationshipStatus{}).
		Select("relationship_statuses.id").
		Joins("JOIN relationships ON relationships.id = relationship_statuses.relationship_id").
		Where("relationships.first_person_id = ? OR relationships.second_person_id = ?", personID, personID)
	if err := scoped(db.Where("status_id IN (?)", statuses)).Find(&notes.Statuses).Error; err != nil {
		return nil, err
	}
	return notes, nil
}
