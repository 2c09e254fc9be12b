package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/matuszelenak/trojsten-graph/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// withPeopleAndStatuses loads both participants and every status.
func (r *graphRepository) withPeopleAndStatuses(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("FirstPerson").
		Preload("SecondPerson").
		Preload("Statuses", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r *graphRepository) ListRelationships(ctx context.Context) ([]domain.Relationship, error) {
	var rels []domain.Relationship
	if err := r.withPeopleAndStatuses(ctx).Order("id").Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// ListRelationshipsForPeople returns relationships touching any of the
// given people.
func (r *graphRepository) ListRelationshipsForPeople(ctx context.Context, personIDs []uint) ([]domain.Relationship, error) {
	if len(personIDs) == 0 {
		return []domain.Relationship{}, nil
	}
	ids := idArray(personIDs)

	var rels []domain.Relationship
	err := r.withPeopleAndStatuses(ctx).
		Where("first_person_id = ANY(?) OR second_person_id = ANY(?)", ids, ids).
		Order("id").
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

func (r *graphRepository) ListRelationshipsOf(ctx context.Context, personID uint) ([]domain.Relationship, error) {
	var rels []domain.Relationship
	err := r.withPeopleAndStatuses(ctx).
		Where("first_person_id = ? OR second_person_id = ?", personID, personID).
		Order("id").
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// GetRelationshipOf only finds relationships personID takes part in.
func (r *graphRepository) GetRelationshipOf(ctx context.Context, relationshipID, personID uint) (*domain.Relationship, error) {
	var rel domain.Relationship
	err := r.withPeopleAndStatuses(ctx).
		Where("id = ? AND (first_person_id = ? OR second_person_id = ?)", relationshipID, personID, personID).
		First(&rel).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &rel, nil
}

// FindRelationship looks the pair up in both orders.
func (r *graphRepository) FindRelationship(ctx context.Context, firstID, secondID uint) (*domain.Relationship, error) {
	var rel domain.Relationship
	err := r.withPeopleAndStatuses(ctx).
		Where("(first_person_id = ? AND second_person_id = ?) OR (first_person_id = ? AND second_person_id = ?)",
			firstID, secondID, secondID, firstID).
		First(&rel).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &rel, nil
}

// GetOrCreateRelationship returns the pair's relationship, creating it with
// firstID as the first person when missing. The bool reports creation.
func (r *graphRepository) GetOrCreateRelationship(ctx context.Context, firstID, secondID uint) (*domain.Relationship, bool, error) {
	rel, err := r.FindRelationship(ctx, firstID, secondID)
	if err == nil {
		return rel, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	created, err := domain.NewRelationship(firstID, secondID)
	if err != nil {
		return nil, false, err
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&created).Error; err != nil {
		return nil, false, fmt.Errorf("could not create relationship: %w", mapError(err))
	}

	rel, err = r.FindRelationship(ctx, firstID, secondID)
	if err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

func (r *graphRepository) DeleteRelationship(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Relationship{}, id).Error; err != nil {
		return fmt.Errorf("could not delete relationship %d: %w", id, err)
	}
	return nil
}

func (r *graphRepository) SaveStatus(ctx context.Context, status *domain.RelationshipStatus) error {
	if err := r.db.WithContext(ctx).Save(status).Error; err != nil {
		return fmt.Errorf("could not save status: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) DeleteStatuses(ctx context.Context, relationshipID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("relationship_id = ? AND id = ANY(?)", relationshipID, idArray(ids)).
		Delete(&domain.RelationshipStatus{}).Error
	if err != nil {
		return fmt.Errorf("could not delete statuses: %w", err)
	}
	return nil
}

func (r *graphRepository) CountStatuses(ctx context.Context, relationshipID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.RelationshipStatus{}).
		Where("relationship_id = ?", relationshipID).
		Count(&count).Error
	return count, err
}
