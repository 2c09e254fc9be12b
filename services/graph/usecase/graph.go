package usecase

import (
	"context"
	"time"

	"github.com/matuszelenak/trojsten-graph/domain"
)

type graphUseCase struct {
	repo    domain.GraphRepo
	TimeOut time.Duration
}

func NewGraphUseCase(repo domain.GraphRepo, to time.Duration) domain.GraphUseCase {
	return &graphUseCase{
		repo:    repo,
		TimeOut: to,
	}
}

// snapshot loads the graph for a viewer. Only people who made themselves
// visible may look at others, and the flag is read fresh rather than from
// the token.
func (gu *graphUseCase) snapshot(ctx context.Context, viewerID uint) ([]domain.Person, []domain.Relationship, error) {
	viewer, err := gu.repo.GetPersonByID(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}
	if !viewer.Visible {
		return nil, nil, domain.ErrNotVisible
	}

	people, err := gu.repo.ListPeople(ctx)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, 0, len(people))
	for _, p := range domain.FilterPeople(people, domain.VisiblePerson()) {
		ids = append(ids, p.ID)
	}
	rels, err := gu.repo.ListRelationshipsForPeople(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return people, rels, nil
}

func (gu *graphUseCase) Graph(ctx context.Context, viewerID uint) (*domain.Graph, error) {
	ctx, cancel := context.WithTimeout(ctx, gu.TimeOut)
	defer cancel()

	people, rels, err := gu.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	g := domain.BuildGraph(people, rels, timeNow())
	return &g, nil
}

func (gu *graphUseCase) People(ctx context.Context, viewerID uint) ([]domain.Node, error) {
	ctx, cancel := context.WithTimeout(ctx, gu.TimeOut)
	defer cancel()

	people, rels, err := gu.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return domain.BuildGraph(people, rels, timeNow()).Nodes, nil
}

func (gu *graphUseCase) Relationships(ctx context.Context, viewerID uint) ([]domain.Edge, error) {
	ctx, cancel := context.WithTimeout(ctx, gu.TimeOut)
	defer cancel()

	people, rels, err := gu.snapshot(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return domain.BuildGraph(people, rels, timeNow()).Edges, nil
}
