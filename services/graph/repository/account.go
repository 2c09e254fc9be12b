package repository

import (
	"context"
	"fmt"

	"github.com/matuszelenak/trojsten-graph/domain"
	"gorm.io/gorm/clause"
)

func (r *graphRepository) CreateToken(ctx context.Context, token *domain.Token) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error; err != nil {
		return fmt.Errorf("could not create token: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) FindValidToken(ctx context.Context, tokenType domain.TokenType, token string) (*domain.Token, error) {
	var found domain.Token
	err := r.db.WithContext(ctx).
		Preload("Person").
		Where("type = ? AND token = ? AND valid = ?", tokenType, token, true).
		First(&found).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &found, nil
}

func (r *graphRepository) InvalidateToken(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Token{}).
		Where("id = ?", id).
		Update("valid", false).Error
	if err != nil {
		return fmt.Errorf("could not invalidate token: %w", err)
	}
	return nil
}

func (r *graphRepository) ListEmailPatterns(ctx context.Context) ([]domain.EmailPatternWhitelist, error) {
	var patterns []domain.EmailPatternWhitelist
	if err := r.db.WithContext(ctx).Order("id").Find(&patterns).Error; err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *graphRepository) FindInviteCode(ctx context.Context, code string) (*domain.InviteCode, error) {
	var invite domain.InviteCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, mapError(err)
	}
	return &invite, nil
}

func (r *graphRepository) SaveInviteCode(ctx context.Context, code *domain.InviteCode) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(code).Error; err != nil {
		return fmt.Errorf("could not save invite code: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) CreateInviteCodes(ctx context.Context, codes []domain.InviteCode) error {
	if len(codes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&codes, 500).Error; err != nil {
		return fmt.Errorf("could not create invite codes: %w", mapError(err))
	}
	return nil
}

func (r *graphRepository) CreateContentUpdateRequest(ctx context.Context, req *domain.ContentUpdateRequest) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error; err != nil {
		return fmt.Errorf("could not create content update request: %w", err)
	}
	return nil
}

func (r *graphRepository) ListContentUpdateRequests(ctx context.Context) ([]domain.ContentUpdateRequest, error) {
	var reqs []domain.ContentUpdateRequest
	if err := r.db.WithContext(ctx).Order("date_created DESC, id DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *graphRepository) GetContentUpdateRequest(ctx context.Context, id uint) (*domain.ContentUpdateRequest, error) {
	var req domain.ContentUpdateRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &req, nil
}

func (r *graphRepository) SaveContentUpdateRequest(ctx context.Context, req *domain.ContentUpdateRequest) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(req).Error; err != nil {
		return fmt.Errorf("could not save content update request: %w", err)
	}
	return nil
}
