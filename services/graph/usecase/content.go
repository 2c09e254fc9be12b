package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matuszelenak/trojsten-graph/domain"
)

type contentUseCase struct {
	repo    domain.GraphRepo
	TimeOut time.Duration
}

func NewContentUseCase(repo domain.GraphRepo, to time.Duration) domain.ContentUseCase {
	return &contentUseCase{
		repo:    repo,
		TimeOut: to,
	}
}

// ResolveSubject returns the person the actor edits: themself, or a person
// they manage when override is set. Unmanaged overrides look like missing
// people.
func (cu *contentUseCase) ResolveSubject(ctx context.Context, actorID uint, override *uint) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	if override == nil || *override == actorID {
		return cu.repo.GetPersonByID(ctx, actorID)
	}

	managed, err := cu.repo.IsManagedBy(ctx, actorID, *override)
	if err != nil {
		return nil, err
	}
	if !managed {
		return nil, domain.ErrNotFound
	}
	return cu.repo.GetPersonByID(ctx, *override)
}

func (cu *contentUseCase) ManagedPeople(ctx context.Context, actorID uint) ([]domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	return cu.repo.ListManagedPeople(ctx, actorID)
}

func (cu *contentUseCase) PersonalInfo(ctx context.Context, subjectID uint) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	return cu.repo.GetPersonByID(ctx, subjectID)
}

func (cu *contentUseCase) UpdatePersonalInfo(ctx context.Context, subjectID uint, payload domain.PersonalInfoPayload) (*domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	verr := &domain.ValidationError{}
	validateStruct(-1, payload, verr)
	if !payload.Gender.Valid() {
		verr.Add(-1, "gender", "Invalid gender")
	}
	birth := parseDate(-1, "birth_date", payload.BirthDate, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	person, err := cu.repo.GetPersonByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	person.FirstName = strings.TrimSpace(payload.FirstName)
	person.LastName = strings.TrimSpace(payload.LastName)
	person.MaidenName = blankToNil(payload.MaidenName)
	person.Nickname = blankToNil(payload.Nickname)
	person.Gender = payload.Gender
	person.BirthDate = birth
	person.Visible = payload.Visible

	if err := cu.repo.SavePerson(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (cu *contentUseCase) Groups(ctx context.Context) ([]domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	return cu.repo.ListGroups(ctx)
}

func (cu *contentUseCase) Memberships(ctx context.Context, subjectID uint) ([]domain.GroupMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	return cu.repo.ListMemberships(ctx, subjectID)
}

// SaveMemberships applies a whole membership batch or nothing. Every row is
// validated before the first write.
func (cu *contentUseCase) SaveMemberships(ctx context.Context, subjectID uint, edits []domain.MembershipEdit) ([]domain.GroupMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	existing, err := cu.repo.ListMemberships(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.GroupMembership, len(existing))
	for _, m := range existing {
		byID[m.ID] = m
	}

	groups, err := cu.repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	knownGroups := make(map[uint]bool, len(groups))
	for _, g := range groups {
		knownGroups[g.ID] = true
	}

	verr := &domain.ValidationError{}
	var deletes []uint
	var saves []domain.GroupMembership
	seenRows := make(map[uint]bool)
	seenGroups := make(map[uint]bool)

	for row, edit := range edits {
		var m domain.GroupMembership
		if edit.ID != nil {
			current, ok := byID[*edit.ID]
			if !ok {
				verr.Add(row, "id", "Unknown membership")
				continue
			}
			if seenRows[*edit.ID] {
				verr.Add(row, "id", "Membership submitted twice")
				continue
			}
			seenRows[*edit.ID] = true
			m = current
		} else {
			m = domain.GroupMembership{PersonID: subjectID}
		}

		if edit.Delete {
			if edit.ID != nil {
				deletes = append(deletes, *edit.ID)
			}
			continue
		}

		if !knownGroups[edit.GroupID] {
			verr.Add(row, "group_id", "Unknown group")
		} else if seenGroups[edit.GroupID] {
			verr.Add(row, "group_id", "You are already a member of this group")
		}
		seenGroups[edit.GroupID] = true

		started := parseDate(row, "date_started", edit.DateStarted, verr)
		ended := parseDate(row, "date_ended", edit.DateEnded, verr)
		checkOrder(row, "date_ended", started, ended, verr)

		m.GroupID = edit.GroupID
		m.Group = domain.Group{}
		m.DateStarted = started
		m.DateEnded = ended
		m.Visible = edit.Visible
		saves = append(saves, m)
	}

	// untouched memberships keep their groups
	for _, m := range existing {
		if !seenRows[m.ID] && seenGroups[m.GroupID] {
			verr.Add(-1, "group_id", "You are already a member of this group")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	err = cu.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		if err := tx.DeleteMemberships(ctx, subjectID, deletes); err != nil {
			return err
		}
		for i := range saves {
			if err := tx.SaveMembership(ctx, &saves[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cu.repo.ListMemberships(ctx, subjectID)
}

func (cu *contentUseCase) MyRelationships(ctx context.Context, subjectID uint) ([]domain.RelationshipView, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	rels, err := cu.repo.ListRelationshipsOf(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	views := make([]domain.RelationshipView, 0, len(rels))
	for _, rel := range rels {
		view, err := domain.NewRelationshipView(rel, subjectID, now)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// statusChange validates one submitted status row.
func statusChange(row int, edit domain.StatusEdit, verr *domain.ValidationError) domain.StatusChange {
	if !edit.Status.Valid() {
		verr.Add(row, "status", "Invalid status")
	}
	start := parseDate(row, "date_start", edit.DateStart, verr)
	end := parseDate(row, "date_end", edit.DateEnd, verr)
	checkOrder(row, "date_end", start, end, verr)

	return domain.StatusChange{
		Status:        edit.Status,
		DateStart:     start,
		DateEnd:       end,
		Visible:       edit.Visible,
		ConfirmedByMe: edit.ConfirmedByMe,
	}
}

// SaveStatuses applies a status batch from the subject's point of view in a
// single transaction. The relationship goes away with its last status, in
// which case the returned view is nil.
func (cu *contentUseCase) SaveStatuses(ctx context.Context, subjectID, relationshipID uint, edits []domain.StatusEdit) (*domain.RelationshipView, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	rel, err := cu.repo.GetRelationshipOf(ctx, relationshipID, subjectID)
	if err != nil {
		return nil, err
	}
	perspective, err := domain.NewPerspective(*rel, subjectID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]domain.RelationshipStatus, len(rel.Statuses))
	for _, s := range rel.Statuses {
		byID[s.ID] = s
	}

	type pending struct {
		status domain.RelationshipStatus
		change domain.StatusChange
	}

	verr := &domain.ValidationError{}
	var deletes []uint
	var writes []pending
	seen := make(map[uint]bool)

	for row, edit := range edits {
		status := domain.RelationshipStatus{RelationshipID: rel.ID}
		if edit.ID != nil {
			current, ok := byID[*edit.ID]
			if !ok {
				verr.Add(row, "id", "Unknown status")
				continue
			}
			if seen[*edit.ID] {
				verr.Add(row, "id", "Status submitted twice")
				continue
			}
			seen[*edit.ID] = true
			status = current
		}

		if edit.Delete {
			if edit.ID != nil {
				deletes = append(deletes, *edit.ID)
			}
			continue
		}
		writes = append(writes, pending{status: status, change: statusChange(row, edit, verr)})
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	removed := false
	err = cu.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		if err := tx.DeleteStatuses(ctx, rel.ID, deletes); err != nil {
			return err
		}

		for _, w := range writes {
			status := w.status
			before := status.ConfirmedBy
			changed := perspective.Apply(&status, w.change)
			if status.ID != 0 && !changed && status.ConfirmedBy == before {
				continue
			}
			if err := tx.SaveStatus(ctx, &status); err != nil {
				return err
			}
		}

		left, err := tx.CountStatuses(ctx, rel.ID)
		if err != nil {
			return err
		}
		if left == 0 {
			removed = true
			return tx.DeleteRelationship(ctx, rel.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed {
		return nil, nil
	}

	return cu.relationshipView(ctx, rel.ID, subjectID)
}

func (cu *contentUseCase) relationshipView(ctx context.Context, relationshipID, subjectID uint) (*domain.RelationshipView, error) {
	rel, err := cu.repo.GetRelationshipOf(ctx, relationshipID, subjectID)
	if err != nil {
		return nil, err
	}
	view, err := domain.NewRelationshipView(*rel, subjectID, timeNow())
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ProposeStatus records a new status towards another person, creating the
// relationship when the pair has none yet.
func (cu *contentUseCase) ProposeStatus(ctx context.Context, subjectID uint, payload domain.ProposalPayload) (*domain.RelationshipView, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	if payload.OtherPersonID == subjectID {
		return nil, domain.ErrSelfRelationship
	}

	verr := &domain.ValidationError{}
	if payload.Status.ID != nil || payload.Status.Delete {
		verr.Add(0, "id", "A proposal can only create a status")
	}
	change := statusChange(0, payload.Status, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := cu.repo.GetPersonByID(ctx, payload.OtherPersonID); err != nil {
		return nil, err
	}

	var relationshipID uint
	err := cu.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		rel, _, err := tx.GetOrCreateRelationship(ctx, subjectID, payload.OtherPersonID)
		if err != nil {
			return err
		}
		perspective, err := domain.NewPerspective(*rel, subjectID)
		if err != nil {
			return err
		}

		status := domain.RelationshipStatus{RelationshipID: rel.ID}
		perspective.Apply(&status, change)
		relationshipID = rel.ID
		return tx.SaveStatus(ctx, &status)
	})
	if err != nil {
		return nil, err
	}

	return cu.relationshipView(ctx, relationshipID, subjectID)
}

// DeletePerson erases the subject after the confirmation phrase was typed.
func (cu *contentUseCase) DeletePerson(ctx context.Context, actorID, subjectID uint, confirmation string) error {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	if strings.TrimSpace(confirmation) != domain.DeletionPhrase {
		return domain.ErrConfirmationPhrase
	}

	if actorID != subjectID {
		managed, err := cu.repo.IsManagedBy(ctx, actorID, subjectID)
		if err != nil {
			return err
		}
		if !managed {
			return domain.ErrNotFound
		}
	}

	return cu.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		err := tx.DeletePerson(ctx, subjectID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (cu *contentUseCase) SubmitContentUpdate(ctx context.Context, personID uint, content string) (*domain.ContentUpdateRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &domain.ValidationError{Errors: []domain.FieldError{{Row: -1, Field: "content", Message: "This field is required"}}}
	}

	req := &domain.ContentUpdateRequest{
		SubmittedByID: &personID,
		Status:        domain.ContentUpdateRequested,
		Content:       content,
	}
	if err := cu.repo.CreateContentUpdateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Notes lists the public notes about the subject's own content.
func (cu *contentUseCase) Notes(ctx context.Context, subjectID uint) (*domain.Notes, error) {
	ctx, cancel := context.WithTimeout(ctx, cu.TimeOut)
	defer cancel()

	return cu.repo.ListNotes(ctx, subjectID, false)
}
