package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/skip2/go-qrcode"
)

const (
	inviteCodeLength = 10
	maxInviteCodes   = 1000
	qrSize           = 256
)

type adminUseCase struct {
	repo    domain.GraphRepo
	TimeOut time.Duration
}

func NewAdminUseCase(repo domain.GraphRepo, to time.Duration) domain.AdminUseCase {
	return &adminUseCase{
		repo:    repo,
		TimeOut: to,
	}
}

func newInviteCode() string {
	return strings.ToUpper(newSecret()[:inviteCodeLength])
}

func (au *adminUseCase) GenerateInviteCodes(ctx context.Context, count int) ([]domain.InviteCode, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	if count < 1 || count > maxInviteCodes {
		return nil, &domain.ValidationError{Errors: []domain.FieldError{{
			Row: -1, Field: "count", Message: fmt.Sprintf("Count must be between 1 and %d", maxInviteCodes),
		}}}
	}

	seen := make(map[string]bool, count)
	codes := make([]domain.InviteCode, 0, count)
	for len(codes) < count {
		code := newInviteCode()
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, domain.InviteCode{Code: code})
	}

	if err := au.repo.CreateInviteCodes(ctx, codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func inviteURL(code string) string {
	return config.GetSiteURL() + "/register?invite_code=" + url.QueryEscape(code)
}

// InviteCodeQR renders the registration link of an unclaimed code.
func (au *adminUseCase) InviteCodeQR(ctx context.Context, code string) (*domain.InviteCodeQR, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	invite, err := au.repo.FindInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if invite.Claimed() {
		return nil, domain.ErrNotFound
	}

	link := inviteURL(invite.Code)
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return &domain.InviteCodeQR{Code: invite.Code, URL: link, PNG: png}, nil
}

func (au *adminUseCase) ContentUpdateRequests(ctx context.Context) ([]domain.ContentUpdateRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	return au.repo.ListContentUpdateRequests(ctx)
}

func (au *adminUseCase) ResolveContentUpdateRequest(ctx context.Context, id uint, status domain.ContentUpdateStatus) (*domain.ContentUpdateRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	if status != domain.ContentUpdateAccepted && status != domain.ContentUpdateRejected {
		return nil, &domain.ValidationError{Errors: []domain.FieldError{{Row: -1, Field: "status", Message: "Invalid status"}}}
	}

	req, err := au.repo.GetContentUpdateRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	req.Status = status
	req.DateResolved = &now
	if err := au.repo.SaveContentUpdateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// DeriveFamily plans the missing family statuses and, with apply, stores
// them unconfirmed and hidden so both sides can review them.
func (au *adminUseCase) DeriveFamily(ctx context.Context, apply bool) (*domain.FamilyReport, error) {
	people, err := au.repo.ListPeople(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := au.repo.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}

	plan := domain.PlanFamily(people, rels)
	report := &domain.FamilyReport{Links: plan.Links, Skipped: plan.Skipped}
	if !apply || len(plan.Links) == 0 {
		return report, nil
	}

	err = au.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		for _, link := range plan.Links {
			rel, _, err := tx.GetOrCreateRelationship(ctx, link.FirstID, link.SecondID)
			if err != nil {
				return err
			}
			status := &domain.RelationshipStatus{
				RelationshipID: rel.ID,
				Status:         link.Kind,
				DateStart:      link.DateStart,
				ConfirmedBy:    domain.ConfirmedByNone,
			}
			if err := tx.SaveStatus(ctx, status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Applied = true
	return report, nil
}

// GenerateManagement grants management authority along parent-child
// statuses. Existing grants are kept.
func (au *adminUseCase) GenerateManagement(ctx context.Context) (int64, error) {
	people, err := au.repo.ListPeople(ctx)
	if err != nil {
		return 0, err
	}
	rels, err := au.repo.ListRelationships(ctx)
	if err != nil {
		return 0, err
	}

	return au.repo.CreateManagementAuthorities(ctx, domain.PlanManagement(people, rels))
}

// Import loads a legacy export in one transaction. Legacy keys are mapped
// to fresh ids next to the existing content. An export can only be loaded
// once: a dump whose people are already present fails with
// ErrAlreadyExists before anything is written.
func (au *adminUseCase) Import(ctx context.Context, dump domain.Dump) (*domain.ImportReport, error) {
	report := &domain.ImportReport{}

	err := au.repo.Transaction(ctx, func(tx domain.GraphRepo) error {
		if err := checkNotImported(ctx, tx, dump.Of(domain.DumpPerson)); err != nil {
			return err
		}

		groups, err := importGroups(ctx, tx, dump.Of(domain.DumpGroup))
		if err != nil {
			return err
		}
		report.Groups = len(groups)

		people, err := importPeople(ctx, tx, dump.Of(domain.DumpPerson), report)
		if err != nil {
			return err
		}
		report.People = len(people)

		for _, rec := range dump.Of(domain.DumpMembership) {
			personID, ok := people[rec.Fields.Person]
			if !ok {
				return fmt.Errorf("membership %d: unknown person %d", rec.PK, rec.Fields.Person)
			}
			groupID, ok := groups[rec.Fields.Group]
			if !ok {
				return fmt.Errorf("membership %d: unknown group %d", rec.PK, rec.Fields.Group)
			}
			started, err := domain.ParseDumpDate(rec.Fields.StartDate)
			if err != nil {
				return fmt.Errorf("membership %d: %w", rec.PK, err)
			}
			ended, err := domain.ParseDumpDate(rec.Fields.EndDate)
			if err != nil {
				return fmt.Errorf("membership %d: %w", rec.PK, err)
			}
			m := &domain.GroupMembership{
				PersonID:    personID,
				GroupID:     groupID,
				DateStarted: started,
				DateEnded:   ended,
				Visible:     true,
			}
			if err := tx.SaveMembership(ctx, m); err != nil {
				return fmt.Errorf("membership %d: %w", rec.PK, err)
			}
			report.Memberships++

			for _, n := range rec.Fields.Notes() {
				note := &domain.GroupMembershipNote{MembershipID: m.ID, Text: n.Text, Type: n.Type}
				if err := tx.CreateMembershipNote(ctx, note); err != nil {
					return fmt.Errorf("membership %d: %w", rec.PK, err)
				}
				report.Notes++
			}
		}

		byPair := make(map[[2]uint][]domain.DumpRecord)
		for _, rec := range dump.Of(domain.DumpEvent) {
			a, b := rec.Fields.PersonFrom, rec.Fields.PersonTo
			if a > b {
				a, b = b, a
			}
			byPair[[2]uint{a, b}] = append(byPair[[2]uint{a, b}], rec)
		}
		pairs := make([][2]uint, 0, len(byPair))
		for key := range byPair {
			pairs = append(pairs, key)
		}
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i][0] != pairs[j][0] {
				return pairs[i][0] < pairs[j][0]
			}
			return pairs[i][1] < pairs[j][1]
		})

		for _, key := range pairs {
			statuses, err := domain.FoldEvents(byPair[key])
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				continue
			}
			first, ok := people[key[0]]
			if !ok {
				return fmt.Errorf("event: unknown person %d", key[0])
			}
			second, ok := people[key[1]]
			if !ok {
				return fmt.Errorf("event: unknown person %d", key[1])
			}

			rel, created, err := tx.GetOrCreateRelationship(ctx, first, second)
			if err != nil {
				return fmt.Errorf("relationship %d-%d: %w", key[0], key[1], err)
			}
			if created {
				report.Relationships++
			}
			for i := range statuses {
				status := &statuses[i].RelationshipStatus
				status.RelationshipID = rel.ID
				if err := tx.SaveStatus(ctx, status); err != nil {
					return err
				}
				report.Statuses++

				for _, note := range statuses[i].Notes {
					note.StatusID = status.ID
					if err := tx.CreateStatusNote(ctx, &note); err != nil {
						return err
					}
					report.Notes++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// importGroups creates parents before children and returns the new id of
// every legacy key.
func importGroups(ctx context.Context, tx domain.GraphRepo, records []domain.DumpRecord) (map[uint]uint, error) {
	ids := make(map[uint]uint, len(records))
	pending := records

	for len(pending) > 0 {
		var next []domain.DumpRecord
		for _, rec := range pending {
			var parentID *uint
			if rec.Fields.Parent != nil {
				id, ok := ids[*rec.Fields.Parent]
				if !ok {
					next = append(next, rec)
					continue
				}
				parentID = &id
			}

			category, err := domain.CategoryFromCode(rec.Fields.Category)
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", rec.PK, err)
			}
			group := &domain.Group{
				Category: category,
				ParentID: parentID,
				Name:     rec.Fields.Name,
				Visible:  true,
			}
			if err := tx.CreateGroup(ctx, group); err != nil {
				return nil, fmt.Errorf("group %d: %w", rec.PK, err)
			}
			ids[rec.PK] = group.ID
		}

		if len(next) == len(pending) {
			return nil, fmt.Errorf("group %d: parent %d is missing or cyclic", next[0].PK, *next[0].Fields.Parent)
		}
		pending = next
	}
	return ids, nil
}

func legacyUsername(pk uint) string {
	return fmt.Sprintf("legacy-%d", pk)
}

func checkNotImported(ctx context.Context, tx domain.GraphRepo, records []domain.DumpRecord) error {
	for _, rec := range records {
		_, err := tx.FindPersonByUsername(ctx, legacyUsername(rec.PK))
		if err == nil {
			return fmt.Errorf("person %d: %w: the dump was imported before", rec.PK, domain.ErrAlreadyExists)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

func importPeople(ctx context.Context, tx domain.GraphRepo, records []domain.DumpRecord, report *domain.ImportReport) (map[uint]uint, error) {
	ids := make(map[uint]uint, len(records))
	for _, rec := range records {
		birth, err := domain.ParseDumpDate(rec.Fields.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", rec.PK, err)
		}
		death, err := domain.ParseDumpDate(rec.Fields.DeathDate)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", rec.PK, err)
		}

		person := &domain.Person{
			Username:   legacyUsername(rec.PK),
			FirstName:  rec.Fields.Name,
			LastName:   rec.Fields.Surname,
			MaidenName: blankToNil(rec.Fields.MaidenName),
			Nickname:   blankToNil(rec.Fields.Nickname),
			Gender:     domain.GenderFromSex(rec.Fields.Sex),
			BirthDate:  birth,
			DeathDate:  death,
			Visible:    rec.Fields.Visible,
		}
		if err := tx.CreatePerson(ctx, person); err != nil {
			return nil, fmt.Errorf("person %d: %w", rec.PK, err)
		}
		ids[rec.PK] = person.ID

		for _, n := range rec.Fields.Notes() {
			note := &domain.PersonNote{PersonID: person.ID, Text: n.Text, Type: n.Type}
			if err := tx.CreatePersonNote(ctx, note); err != nil {
				return nil, fmt.Errorf("person %d: %w", rec.PK, err)
			}
			report.Notes++
		}
	}
	return ids, nil
}

// PersonNotes lists every note about a person, private ones included.
func (au *adminUseCase) PersonNotes(ctx context.Context, personID uint) (*domain.Notes, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	if _, err := au.repo.GetPersonByID(ctx, personID); err != nil {
		return nil, err
	}
	return au.repo.ListNotes(ctx, personID, true)
}

func (au *adminUseCase) AddPersonNote(ctx context.Context, authorID, personID uint, payload domain.NotePayload) (*domain.PersonNote, error) {
	ctx, cancel := context.WithTimeout(ctx, au.TimeOut)
	defer cancel()

	payload.Text = strings.TrimSpace(payload.Text)
	verr := &domain.ValidationError{}
	validateStruct(-1, payload, verr)
	if !payload.Type.Valid() {
		verr.Add(-1, "type", "Invalid note type")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := au.repo.GetPersonByID(ctx, personID); err != nil {
		return nil, err
	}

	note := &domain.PersonNote{
		PersonID:    personID,
		Text:        payload.Text,
		Type:        payload.Type,
		CreatedByID: &authorID,
	}
	if err := au.repo.CreatePersonNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}
