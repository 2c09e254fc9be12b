package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuszelenak/trojsten-graph/domain"
)

func TestGenerateInviteCodes(t *testing.T) {
	repo := setup(t)
	uc := NewAdminUseCase(repo, time.Second)
	ctx := context.Background()

	_, err := uc.GenerateInviteCodes(ctx, 0)
	assert.Equal(t, []string{"count"}, validationFields(t, err))

	codes, err := uc.GenerateInviteCodes(ctx, 3)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.Len(t, repo.invites, 3)
	assert.NotEqual(t, codes[0].Code, codes[1].Code)
	for _, c := range codes {
		assert.Len(t, c.Code, inviteCodeLength)
		assert.Regexp(t, `^[0-9A-F]+$`, c.Code)
	}

	qr, err := uc.InviteCodeQR(ctx, codes[0].Code)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/register?invite_code="+codes[0].Code, qr.URL)
	assert.Equal(t, []byte("\x89PNG"), qr.PNG[:4])

	claimed := codes[1]
	owner := uint(1)
	claimed.PersonID = &owner
	require.NoError(t, repo.SaveInviteCode(ctx, &claimed))
	_, err = uc.InviteCodeQR(ctx, claimed.Code)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.InviteCodeQR(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveContentUpdateRequest(t *testing.T) {
	repo := setup(t)
	uc := NewAdminUseCase(repo, time.Second)
	ctx := context.Background()

	req := &domain.ContentUpdateRequest{Status: domain.ContentUpdateRequested, Content: "typo"}
	require.NoError(t, repo.CreateContentUpdateRequest(ctx, req))

	_, err := uc.ResolveContentUpdateRequest(ctx, req.ID, domain.ContentUpdateRequested)
	assert.Equal(t, []string{"status"}, validationFields(t, err))

	_, err = uc.ResolveContentUpdateRequest(ctx, 999, domain.ContentUpdateAccepted)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.ResolveContentUpdateRequest(ctx, req.ID, domain.ContentUpdateAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.ContentUpdateAccepted, got.Status)
	assert.Equal(t, fixedNow, *got.DateResolved)

	all, err := uc.ContentUpdateRequests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.ContentUpdateAccepted, all[0].Status)
}

func familyFixture(t *testing.T, repo *memRepo) (parent, older, younger *domain.Person) {
	t.Helper()
	ctx := context.Background()
	parent = repo.addPerson(domain.Person{Username: "parent", BirthDate: date("1960-01-01")})
	older = repo.addPerson(domain.Person{Username: "older", BirthDate: date("1990-04-05")})
	younger = repo.addPerson(domain.Person{Username: "younger", BirthDate: date("1993-00-00")})

	for _, kid := range []*domain.Person{older, younger} {
		rel, _, err := repo.GetOrCreateRelationship(ctx, kid.ID, parent.ID)
		require.NoError(t, err)
		require.NoError(t, repo.SaveStatus(ctx, &domain.RelationshipStatus{
			RelationshipID: rel.ID, Status: domain.StatusParentChild, DateStart: kid.BirthDate, ConfirmedBy: domain.ConfirmedByBoth,
		}))
	}
	return parent, older, younger
}

func TestDeriveFamily(t *testing.T) {
	repo := setup(t)
	_, older, younger := familyFixture(t, repo)
	uc := NewAdminUseCase(repo, time.Second)
	ctx := context.Background()

	report, err := uc.DeriveFamily(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Applied)
	assert.Equal(t, []domain.FamilyLink{
		{FirstID: older.ID, SecondID: younger.ID, Kind: domain.StatusSibling, DateStart: date("1993-00-00")},
	}, report.Links)
	assert.Len(t, repo.relationships, 2)

	report, err = uc.DeriveFamily(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.Applied)

	rel, err := repo.FindRelationship(ctx, older.ID, younger.ID)
	require.NoError(t, err)
	require.Len(t, rel.Statuses, 1)
	assert.Equal(t, domain.StatusSibling, rel.Statuses[0].Status)
	assert.Equal(t, domain.ConfirmedByNone, rel.Statuses[0].ConfirmedBy)
	assert.False(t, rel.Statuses[0].Visible)

	report, err = uc.DeriveFamily(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, report.Links)
	assert.False(t, report.Applied)
}

func TestGenerateManagement(t *testing.T) {
	repo := setup(t)
	parent, older, younger := familyFixture(t, repo)
	uc := NewAdminUseCase(repo, time.Second)
	ctx := context.Background()

	created, err := uc.GenerateManagement(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)
	assert.True(t, repo.management[[2]uint{parent.ID, older.ID}])
	assert.True(t, repo.management[[2]uint{parent.ID, younger.ID}])

	created, err = uc.GenerateManagement(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestImport(t *testing.T) {
	repo := setup(t)
	uc := NewAdminUseCase(repo, time.Second)
	ctx := context.Background()

	parentGroup := uint(1)
	dump := domain.Dump{
		{Model: domain.DumpGroup, PK: 2, Fields: domain.DumpFields{Name: "KSP 2010", Category: "S", Parent: &parentGroup}},
		{Model: domain.DumpGroup, PK: 1, Fields: domain.DumpFields{Name: "KSP", Category: "S"}},
		{Model: domain.DumpPerson, PK: 10, Fields: domain.DumpFields{Name: "Anna", Surname: "K", Sex: "F", BirthDate: "1995-00-00", Visible: true, Comment: "team captain"}},
		{Model: domain.DumpPerson, PK: 11, Fields: domain.DumpFields{Name: "Boris", Surname: "L", Sex: "M", Visible: true}},
		{Model: domain.DumpMembership, PK: 1, Fields: domain.DumpFields{Person: 10, Group: 2, StartDate: "2010-09-00", DataComment: "from the archive"}},
		{Model: domain.DumpEvent, PK: 1, Fields: domain.DumpFields{PersonFrom: 11, PersonTo: 10, Date: "2014-00-00", Type: "DAT", Visible: true, Comment: "summer camp"}},
		{Model: domain.DumpEvent, PK: 2, Fields: domain.DumpFields{PersonFrom: 10, PersonTo: 11, Date: "2016-00-00", Type: "BRE", Visible: true}},
	}

	report, err := uc.Import(ctx, dump)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportReport{People: 2, Groups: 2, Memberships: 1, Relationships: 1, Statuses: 1, Notes: 3}, *report)

	sub, err := repo.FindGroupByName(ctx, "KSP 2010")
	require.NoError(t, err)
	top, err := repo.FindGroupByName(ctx, "KSP")
	require.NoError(t, err)
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, top.ID, *sub.ParentID)

	anna, err := repo.FindPersonByUsername(ctx, "legacy-10")
	require.NoError(t, err)
	assert.Equal(t, domain.GenderFemale, anna.Gender)

	rels, err := repo.ListRelationshipsOf(ctx, anna.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	require.Len(t, rels[0].Statuses, 1)
	assert.Equal(t, "2016-00-00", rels[0].Statuses[0].DateEnd.String())
	assert.True(t, rels[0].Statuses[0].IsConfirmed())

	notes, err := repo.ListNotes(ctx, anna.ID, true)
	require.NoError(t, err)
	require.Len(t, notes.Person, 1)
	assert.Equal(t, "team captain", notes.Person[0].Text)
	assert.Equal(t, domain.NotePublic, notes.Person[0].Type)
	require.Len(t, notes.Memberships, 1)
	assert.Equal(t, domain.NotePrivate, notes.Memberships[0].Type)
	require.Len(t, notes.Statuses, 1)
	assert.Equal(t, rels[0].Statuses[0].ID, notes.Statuses[0].StatusID)
	assert.Equal(t, domain.ReasonStatusStart, notes.Statuses[0].Reason)

	_, err = uc.Import(ctx, dump)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Len(t, repo.people, 2)
	assert.Len(t, repo.groups, 2)
	assert.Len(t, repo.statuses, 1)
}

func TestImportRollsBackOnBrokenReference(t *testing.T) {
	repo := setup(t)
	uc := NewAdminUseCase(repo, time.Second)

	_, err := uc.Import(context.Background(), domain.Dump{
		{Model: domain.DumpPerson, PK: 10, Fields: domain.DumpFields{Name: "Anna"}},
		{Model: domain.DumpMembership, PK: 1, Fields: domain.DumpFields{Person: 10, Group: 5}},
	})
	assert.Error(t, err)
	assert.Empty(t, repo.people)
}

func TestPersonNotes(t *testing.T) {
	repo := setup(t)
	staff := repo.addPerson(domain.Person{Username: "staff", IsStaff: true})
	anna := repo.addPerson(domain.Person{Username: "anna"})
	admin := NewAdminUseCase(repo, time.Second)
	content := NewContentUseCase(repo, time.Second)
	ctx := context.Background()

	_, err := admin.AddPersonNote(ctx, staff.ID, anna.ID, domain.NotePayload{Text: "  ", Type: 7})
	assert.Equal(t, []string{"text", "type"}, validationFields(t, err))

	_, err = admin.AddPersonNote(ctx, staff.ID, 999, domain.NotePayload{Text: "x", Type: domain.NotePublic})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	public, err := admin.AddPersonNote(ctx, staff.ID, anna.ID, domain.NotePayload{Text: " Olympiad medalist ", Type: domain.NotePublic})
	require.NoError(t, err)
	assert.Equal(t, "Olympiad medalist", public.Text)
	require.NotNil(t, public.CreatedByID)
	assert.Equal(t, staff.ID, *public.CreatedByID)
	_, err = admin.AddPersonNote(ctx, staff.ID, anna.ID, domain.NotePayload{Text: "unverified", Type: domain.NotePrivate})
	require.NoError(t, err)

	all, err := admin.PersonNotes(ctx, anna.ID)
	require.NoError(t, err)
	assert.Len(t, all.Person, 2)

	own, err := content.Notes(ctx, anna.ID)
	require.NoError(t, err)
	require.Len(t, own.Person, 1)
	assert.Equal(t, public.ID, own.Person[0].ID)

	require.NoError(t, repo.DeletePerson(ctx, staff.ID))
	assert.Nil(t, repo.personNotes[public.ID].CreatedByID)

	require.NoError(t, content.DeletePerson(ctx, anna.ID, anna.ID, "delete"))
	assert.Empty(t, repo.personNotes)

	_, err = admin.PersonNotes(ctx, anna.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
