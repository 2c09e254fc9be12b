package repository

import (
	"context"
	"fmt"

	"github.com/matuszelenak/trojsten-graph/domain"
	"gorm.io/gorm/clause"
)

func (r *graphRepository) ListGroups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if err := r.db.WithContext(ctx).Order("category, name").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *graphRepository) GetGroupByID(ctx context.Context, id uint) (*domain.Group, error) {
	var group domain.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &group, nil
}

func (r *graphRepository) FindGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	var group domain.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, mapError(err)
	}
	return &group, nil
}

func (r *graphRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(group).Error; err != nil {
		return fmt.Errorf("could not create group %q: %w", group.Name, mapError(err))
	}
	return nil
}

func (r *graphRepository) ListMemberships(ctx context.Context, personID uint) ([]domain.GroupMembership, error) {
	var memberships []domain.GroupMembership
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("person_id = ?", personID).
		Order("date_started NULLS LAST, id").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *graphRepository) SaveMembership(ctx context.Context, membership *domain.GroupMembership) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(membership).Error; err != nil {
		return fmt.Errorf("could not save membership: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) DeleteMemberships(ctx context.Context, personID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND id = ANY(?)", personID, idArray(ids)).
		Delete(&domain.GroupMembership{}).Error
	if err != nil {
		return fmt.Errorf("could not delete memberships: %w", err)
	}
	return nil
}
