package usecase

import (
	"context"
	"maps"
	"sort"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/vardate"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) *memRepo {
	t.Helper()
	timeNow = func() time.Time { return fixedNow }
	viper.Set("jwt_secret", "test-secret")
	t.Cleanup(func() {
		timeNow = time.Now
		viper.Set("jwt_secret", "")
	})
	return newMemRepo()
}

func date(s string) *vardate.Date {
	d := vardate.MustParse(s)
	return &d
}

type memState struct {
	people        map[uint]domain.Person
	groups        map[uint]domain.Group
	memberships   map[uint]domain.GroupMembership
	relationships map[uint]domain.Relationship
	statuses      map[uint]domain.RelationshipStatus
	management    map[[2]uint]bool
	tokens        map[uint]domain.Token
	invites       map[uint]domain.InviteCode
	patterns      []domain.EmailPatternWhitelist
	requests      map[uint]domain.ContentUpdateRequest
	personNotes   map[uint]domain.PersonNote
	memberNotes   map[uint]domain.GroupMembershipNote
	statusNotes   map[uint]domain.RelationshipStatusNote
	nextID        uint
}

func (s memState) clone() memState {
	c := s
	c.people = maps.Clone(s.people)
	c.groups = maps.Clone(s.groups)
	c.memberships = maps.Clone(s.memberships)
	c.relationships = maps.Clone(s.relationships)
	c.statuses = maps.Clone(s.statuses)
	c.management = maps.Clone(s.management)
	c.tokens = maps.Clone(s.tokens)
	c.invites = maps.Clone(s.invites)
	c.patterns = append([]domain.EmailPatternWhitelist(nil), s.patterns...)
	c.requests = maps.Clone(s.requests)
	c.personNotes = maps.Clone(s.personNotes)
	c.memberNotes = maps.Clone(s.memberNotes)
	c.statusNotes = maps.Clone(s.statusNotes)
	return c
}

// memRepo keeps everything in maps. Transactions snapshot the state and
// restore it when the callback fails.
type memRepo struct {
	*memState

	failSaveStatus error
}

var _ domain.GraphRepo = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{memState: &memState{
		people:        map[uint]domain.Person{},
		groups:        map[uint]domain.Group{},
		memberships:   map[uint]domain.GroupMembership{},
		relationships: map[uint]domain.Relationship{},
		statuses:      map[uint]domain.RelationshipStatus{},
		management:    map[[2]uint]bool{},
		tokens:        map[uint]domain.Token{},
		invites:       map[uint]domain.InviteCode{},
		requests:      map[uint]domain.ContentUpdateRequest{},
		personNotes:   map[uint]domain.PersonNote{},
		memberNotes:   map[uint]domain.GroupMembershipNote{},
		statusNotes:   map[uint]domain.RelationshipStatusNote{},
	}}
}

func (r *memRepo) id() uint {
	r.nextID++
	return r.nextID
}

func sortedIDs[V any](m map[uint]V, keep func(V) bool) []uint {
	out := make([]uint, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *memRepo) Transaction(_ context.Context, fn func(tx domain.GraphRepo) error) error {
	snapshot := r.memState.clone()
	if err := fn(r); err != nil {
		*r.memState = snapshot
		return err
	}
	return nil
}

// people

func (r *memRepo) addPerson(p domain.Person) *domain.Person {
	p.ID = r.id()
	r.people[p.ID] = p
	return &p
}

func (r *memRepo) GetPersonByID(_ context.Context, id uint) (*domain.Person, error) {
	p, ok := r.people[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) FindPersonByEmail(_ context.Context, email string) (*domain.Person, error) {
	for _, id := range sortedIDs(r.people, nil) {
		p := r.people[id]
		if p.Email != nil && *p.Email == email {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) FindPersonByUsername(_ context.Context, username string) (*domain.Person, error) {
	for _, id := range sortedIDs(r.people, nil) {
		if p := r.people[id]; p.Username == username {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) CreatePerson(_ context.Context, person *domain.Person) error {
	for _, p := range r.people {
		if p.Username == person.Username || (p.Email != nil && person.Email != nil && *p.Email == *person.Email) {
			return domain.ErrAlreadyExists
		}
	}
	person.ID = r.id()
	stored := *person
	stored.Memberships = nil
	r.people[person.ID] = stored
	return nil
}

func (r *memRepo) SavePerson(_ context.Context, person *domain.Person) error {
	if _, ok := r.people[person.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *person
	stored.Memberships = nil
	r.people[person.ID] = stored
	return nil
}

func (r *memRepo) DeletePerson(_ context.Context, id uint) error {
	if _, ok := r.people[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.people, id)
	for mid, m := range r.memberships {
		if m.PersonID == id {
			delete(r.memberships, mid)
		}
	}
	for rid, rel := range r.relationships {
		if rel.Involves(id) {
			r.dropRelationship(rid)
		}
	}
	for key := range r.management {
		if key[0] == id || key[1] == id {
			delete(r.management, key)
		}
	}
	for tid, tok := range r.tokens {
		if tok.PersonID == id {
			delete(r.tokens, tid)
		}
	}
	r.pruneNotes()
	return nil
}

func (r *memRepo) withMemberships(p domain.Person) domain.Person {
	p.Memberships = nil
	for _, mid := range sortedIDs(r.memberships, func(m domain.GroupMembership) bool { return m.PersonID == p.ID }) {
		m := r.memberships[mid]
		m.Group = r.groups[m.GroupID]
		p.Memberships = append(p.Memberships, m)
	}
	return p
}

func (r *memRepo) ListPeople(_ context.Context) ([]domain.Person, error) {
	out := []domain.Person{}
	for _, id := range sortedIDs(r.people, nil) {
		out = append(out, r.withMemberships(r.people[id]))
	}
	return out, nil
}

func (r *memRepo) ListManagedPeople(_ context.Context, managerID uint) ([]domain.Person, error) {
	out := []domain.Person{}
	for _, id := range sortedIDs(r.people, nil) {
		if r.management[[2]uint{managerID, id}] {
			out = append(out, r.people[id])
		}
	}
	return out, nil
}

func (r *memRepo) IsManagedBy(_ context.Context, managerID, subjectID uint) (bool, error) {
	return r.management[[2]uint{managerID, subjectID}], nil
}

func (r *memRepo) CreateManagementAuthorities(_ context.Context, authorities []domain.ManagementAuthority) (int64, error) {
	var created int64
	for _, a := range authorities {
		key := [2]uint{a.ManagerID, a.SubjectID}
		if !r.management[key] {
			r.management[key] = true
			created++
		}
	}
	return created, nil
}

// groups

func (r *memRepo) ListGroups(_ context.Context) ([]domain.Group, error) {
	out := []domain.Group{}
	for _, id := range sortedIDs(r.groups, nil) {
		out = append(out, r.groups[id])
	}
	return out, nil
}

func (r *memRepo) GetGroupByID(_ context.Context, id uint) (*domain.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (r *memRepo) FindGroupByName(_ context.Context, name string) (*domain.Group, error) {
	for _, g := range r.groups {
		if g.Name == name {
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) CreateGroup(_ context.Context, group *domain.Group) error {
	for _, g := range r.groups {
		if g.Name == group.Name {
			return domain.ErrAlreadyExists
		}
	}
	group.ID = r.id()
	stored := *group
	stored.Parent = nil
	r.groups[group.ID] = stored
	return nil
}

func (r *memRepo) ListMemberships(_ context.Context, personID uint) ([]domain.GroupMembership, error) {
	return r.withMemberships(domain.Person{ID: personID}).Memberships, nil
}

func (r *memRepo) SaveMembership(_ context.Context, membership *domain.GroupMembership) error {
	for _, m := range r.memberships {
		if m.ID != membership.ID && m.PersonID == membership.PersonID && m.GroupID == membership.GroupID {
			return domain.ErrAlreadyExists
		}
	}
	if membership.ID == 0 {
		membership.ID = r.id()
	}
	stored := *membership
	stored.Group = domain.Group{}
	r.memberships[membership.ID] = stored
	return nil
}

func (r *memRepo) DeleteMemberships(_ context.Context, personID uint, ids []uint) error {
	for _, id := range ids {
		if m, ok := r.memberships[id]; ok && m.PersonID == personID {
			delete(r.memberships, id)
		}
	}
	r.pruneNotes()
	return nil
}

// relationships

func (r *memRepo) loaded(rel domain.Relationship) domain.Relationship {
	rel.FirstPerson = r.people[rel.FirstPersonID]
	rel.SecondPerson = r.people[rel.SecondPersonID]
	rel.Statuses = nil
	for _, sid := range sortedIDs(r.statuses, func(s domain.RelationshipStatus) bool { return s.RelationshipID == rel.ID }) {
		rel.Statuses = append(rel.Statuses, r.statuses[sid])
	}
	return rel
}

func (r *memRepo) listRelationships(keep func(domain.Relationship) bool) []domain.Relationship {
	out := []domain.Relationship{}
	for _, id := range sortedIDs(r.relationships, keep) {
		out = append(out, r.loaded(r.relationships[id]))
	}
	return out
}

func (r *memRepo) ListRelationships(_ context.Context) ([]domain.Relationship, error) {
	return r.listRelationships(nil), nil
}

func (r *memRepo) ListRelationshipsForPeople(_ context.Context, personIDs []uint) ([]domain.Relationship, error) {
	in := make(map[uint]bool, len(personIDs))
	for _, id := range personIDs {
		in[id] = true
	}
	return r.listRelationships(func(rel domain.Relationship) bool {
		return in[rel.FirstPersonID] || in[rel.SecondPersonID]
	}), nil
}

func (r *memRepo) ListRelationshipsOf(_ context.Context, personID uint) ([]domain.Relationship, error) {
	return r.listRelationships(func(rel domain.Relationship) bool { return rel.Involves(personID) }), nil
}

func (r *memRepo) GetRelationshipOf(_ context.Context, relationshipID, personID uint) (*domain.Relationship, error) {
	rel, ok := r.relationships[relationshipID]
	if !ok || !rel.Involves(personID) {
		return nil, domain.ErrNotFound
	}
	loaded := r.loaded(rel)
	return &loaded, nil
}

func (r *memRepo) FindRelationship(_ context.Context, firstID, secondID uint) (*domain.Relationship, error) {
	for _, id := range sortedIDs(r.relationships, nil) {
		rel := r.relationships[id]
		if rel.Involves(firstID) && rel.Involves(secondID) {
			loaded := r.loaded(rel)
			return &loaded, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) GetOrCreateRelationship(ctx context.Context, firstID, secondID uint) (*domain.Relationship, bool, error) {
	if rel, err := r.FindRelationship(ctx, firstID, secondID); err == nil {
		return rel, false, nil
	}
	rel, err := domain.NewRelationship(firstID, secondID)
	if err != nil {
		return nil, false, err
	}
	rel.ID = r.id()
	r.relationships[rel.ID] = rel
	loaded := r.loaded(rel)
	return &loaded, true, nil
}

func (r *memRepo) dropRelationship(id uint) {
	delete(r.relationships, id)
	for sid, s := range r.statuses {
		if s.RelationshipID == id {
			delete(r.statuses, sid)
		}
	}
	r.pruneNotes()
}

func (r *memRepo) DeleteRelationship(_ context.Context, id uint) error {
	r.dropRelationship(id)
	return nil
}

func (r *memRepo) SaveStatus(_ context.Context, status *domain.RelationshipStatus) error {
	if r.failSaveStatus != nil {
		return r.failSaveStatus
	}
	if _, ok := r.relationships[status.RelationshipID]; !ok {
		return domain.ErrNotFound
	}
	if status.ID == 0 {
		status.ID = r.id()
	}
	r.statuses[status.ID] = *status
	return nil
}

func (r *memRepo) DeleteStatuses(_ context.Context, relationshipID uint, ids []uint) error {
	for _, id := range ids {
		if s, ok := r.statuses[id]; ok && s.RelationshipID == relationshipID {
			delete(r.statuses, id)
		}
	}
	r.pruneNotes()
	return nil
}

func (r *memRepo) CountStatuses(_ context.Context, relationshipID uint) (int64, error) {
	return int64(len(sortedIDs(r.statuses, func(s domain.RelationshipStatus) bool { return s.RelationshipID == relationshipID }))), nil
}

// notes

// pruneNotes mirrors the cascading foreign keys of the note tables.
func (r *memRepo) pruneNotes() {
	for id, n := range r.personNotes {
		if _, ok := r.people[n.PersonID]; !ok {
			delete(r.personNotes, id)
			continue
		}
		if n.CreatedByID != nil {
			if _, ok := r.people[*n.CreatedByID]; !ok {
				n.CreatedByID = nil
				r.personNotes[id] = n
			}
		}
	}
	for id, n := range r.memberNotes {
		if _, ok := r.memberships[n.MembershipID]; !ok {
			delete(r.memberNotes, id)
		}
	}
	for id, n := range r.statusNotes {
		if _, ok := r.statuses[n.StatusID]; !ok {
			delete(r.statusNotes, id)
		}
	}
}

func (r *memRepo) CreatePersonNote(_ context.Context, note *domain.PersonNote) error {
	if _, ok := r.people[note.PersonID]; !ok {
		return domain.ErrNotFound
	}
	note.ID = r.id()
	note.DateCreated = fixedNow
	r.personNotes[note.ID] = *note
	return nil
}

func (r *memRepo) CreateMembershipNote(_ context.Context, note *domain.GroupMembershipNote) error {
	if _, ok := r.memberships[note.MembershipID]; !ok {
		return domain.ErrNotFound
	}
	note.ID = r.id()
	note.DateCreated = fixedNow
	r.memberNotes[note.ID] = *note
	return nil
}

func (r *memRepo) CreateStatusNote(_ context.Context, note *domain.RelationshipStatusNote) error {
	if _, ok := r.statuses[note.StatusID]; !ok {
		return domain.ErrNotFound
	}
	note.ID = r.id()
	note.DateCreated = fixedNow
	r.statusNotes[note.ID] = *note
	return nil
}

func (r *memRepo) ListNotes(_ context.Context, personID uint, includePrivate bool) (*domain.Notes, error) {
	shown := func(t domain.NoteType) bool { return includePrivate || t == domain.NotePublic }
	notes := &domain.Notes{}
	for _, id := range sortedIDs(r.personNotes, func(n domain.PersonNote) bool {
		return n.PersonID == personID && shown(n.Type)
	}) {
		notes.Person = append(notes.Person, r.personNotes[id])
	}
	for _, id := range sortedIDs(r.memberNotes, func(n domain.GroupMembershipNote) bool {
		return r.memberships[n.MembershipID].PersonID == personID && shown(n.Type)
	}) {
		notes.Memberships = append(notes.Memberships, r.memberNotes[id])
	}
	for _, id := range sortedIDs(r.statusNotes, func(n domain.RelationshipStatusNote) bool {
		rel := r.relationships[r.statuses[n.StatusID].RelationshipID]
		return rel.Involves(personID) && shown(n.Type)
	}) {
		notes.Statuses = append(notes.Statuses, r.statusNotes[id])
	}
	return notes, nil
}

// accounts

func (r *memRepo) CreateToken(_ context.Context, token *domain.Token) error {
	token.ID = r.id()
	r.tokens[token.ID] = *token
	return nil
}

func (r *memRepo) FindValidToken(_ context.Context, tokenType domain.TokenType, token string) (*domain.Token, error) {
	for _, t := range r.tokens {
		if t.Valid && t.Type == tokenType && t.Token == token {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) InvalidateToken(_ context.Context, id uint) error {
	t, ok := r.tokens[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Valid = false
	r.tokens[id] = t
	return nil
}

func (r *memRepo) ListEmailPatterns(_ context.Context) ([]domain.EmailPatternWhitelist, error) {
	return r.patterns, nil
}

func (r *memRepo) FindInviteCode(_ context.Context, code string) (*domain.InviteCode, error) {
	for _, c := range r.invites {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) SaveInviteCode(_ context.Context, code *domain.InviteCode) error {
	if code.ID == 0 {
		code.ID = r.id()
	}
	r.invites[code.ID] = *code
	return nil
}

func (r *memRepo) CreateInviteCodes(ctx context.Context, codes []domain.InviteCode) error {
	for i := range codes {
		if err := r.SaveInviteCode(ctx, &codes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRepo) CreateContentUpdateRequest(_ context.Context, req *domain.ContentUpdateRequest) error {
	req.ID = r.id()
	r.requests[req.ID] = *req
	return nil
}

func (r *memRepo) ListContentUpdateRequests(_ context.Context) ([]domain.ContentUpdateRequest, error) {
	out := []domain.ContentUpdateRequest{}
	for _, id := range sortedIDs(r.requests, nil) {
		out = append(out, r.requests[id])
	}
	return out, nil
}

func (r *memRepo) GetContentUpdateRequest(_ context.Context, id uint) (*domain.ContentUpdateRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &req, nil
}

func (r *memRepo) SaveContentUpdateRequest(_ context.Context, req *domain.ContentUpdateRequest) error {
	r.requests[req.ID] = *req
	return nil
}

type sentMail struct {
	to, subject, body string
}

type memMailer struct {
	sent []sentMail
}

func (m *memMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
