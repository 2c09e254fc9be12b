package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuszelenak/trojsten-graph/domain"
)

func TestGraphRequiresVisibleViewer(t *testing.T) {
	repo := setup(t)
	hidden := repo.addPerson(domain.Person{Username: "hidden"})
	uc := NewGraphUseCase(repo, time.Second)

	_, err := uc.Graph(context.Background(), hidden.ID)
	assert.ErrorIs(t, err, domain.ErrNotVisible)

	_, err = uc.People(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGraphShowsOnlyVisibleConfirmedContent(t *testing.T) {
	repo := setup(t)
	anna := repo.addPerson(domain.Person{Username: "anna", Visible: true, BirthDate: date("1996-04-02")})
	boris := repo.addPerson(domain.Person{Username: "boris", Visible: true})
	cyril := repo.addPerson(domain.Person{Username: "cyril"})

	ab, _, err := repo.GetOrCreateRelationship(context.Background(), anna.ID, boris.ID)
	require.NoError(t, err)
	ac, _, err := repo.GetOrCreateRelationship(context.Background(), anna.ID, cyril.ID)
	require.NoError(t, err)
	for _, s := range []domain.RelationshipStatus{
		{RelationshipID: ab.ID, Status: domain.StatusDating, DateStart: date("2019-00-00"), ConfirmedBy: domain.ConfirmedByBoth, Visible: true},
		{RelationshipID: ab.ID, Status: domain.StatusEngaged, DateStart: date("2024-00-00"), ConfirmedBy: domain.ConfirmedByFirst, Visible: true},
		{RelationshipID: ac.ID, Status: domain.StatusSibling, DateStart: date("2000-00-00"), ConfirmedBy: domain.ConfirmedByBoth, Visible: true},
	} {
		require.NoError(t, repo.SaveStatus(context.Background(), &s))
	}

	uc := NewGraphUseCase(repo, time.Second)

	g, err := uc.Graph(context.Background(), anna.ID)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, anna.ID, g.Nodes[0].ID)
	assert.Equal(t, 29, g.Nodes[0].Age.Years)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, ab.ID, g.Edges[0].ID)
	require.Len(t, g.Edges[0].Statuses, 1)
	assert.Equal(t, domain.StatusDating, g.Edges[0].Statuses[0].Status)

	people, err := uc.People(context.Background(), boris.ID)
	require.NoError(t, err)
	assert.Len(t, people, 2)

	edges, err := uc.Relationships(context.Background(), boris.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
