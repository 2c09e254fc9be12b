package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/matuszelenak/trojsten-graph/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *graphRepository) GetPersonByID(ctx context.Context, id uint) (*domain.Person, error) {
	var person domain.Person
	if err := r.db.WithContext(ctx).First(&person, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &person, nil
}

func (r *graphRepository) FindPersonByEmail(ctx context.Context, email string) (*domain.Person, error) {
	var person domain.Person
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&person).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &person, nil
}

func (r *graphRepository) FindPersonByUsername(ctx context.Context, username string) (*domain.Person, error) {
	var person domain.Person
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&person).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &person, nil
}

func (r *graphRepository) CreatePerson(ctx context.Context, person *domain.Person) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(person).Error; err != nil {
		return fmt.Errorf("could not create person: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) SavePerson(ctx context.Context, person *domain.Person) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(person).Error; err != nil {
		return fmt.Errorf("could not save person %d: %w", person.ID, mapError(err))
	}
	return nil
}

// DeletePerson relies on the cascading foreign keys to remove memberships,
// relationships, tokens and management authorities with the person.
func (r *graphRepository) DeletePerson(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Person{}, id)
	if res.Error != nil {
		return fmt.Errorf("could not delete person %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPeople loads every person with their memberships and groups.
func (r *graphRepository) ListPeople(ctx context.Context) ([]domain.Person, error) {
	var people []domain.Person
	err := r.db.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Memberships.Group").
		Order("id").
		Find(&people).Error
	if err != nil {
		return nil, err
	}
	return people, nil
}

func (r *graphRepository) ListManagedPeople(ctx context.Context, managerID uint) ([]domain.Person, error) {
	var people []domain.Person
	err := r.db.WithContext(ctx).
		Joins("JOIN management_authorities ON management_authorities.subject_id = people.id").
		Where("management_authorities.manager_id = ?", managerID).
		Order("people.id").
		Find(&people).Error
	if err != nil {
		return nil, err
	}
	return people, nil
}

func (r *graphRepository) IsManagedBy(ctx context.Context, managerID, subjectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ManagementAuthority{}).
		Where("manager_id = ? AND subject_id = ?", managerID, subjectID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateManagementAuthorities skips pairs that already exist and reports
// how many rows were inserted.
func (r *graphRepository) CreateManagementAuthorities(ctx context.Context, authorities []domain.ManagementAuthority) (int64, error) {
	if len(authorities) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&authorities, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("could not create management authorities: %w", res.Error)
	}
	return res.RowsAffected, nil
}
