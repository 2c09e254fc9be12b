package domain

import "context"

// FamilyReport summarizes a derivation run.
type FamilyReport struct {
	Links   []FamilyLink `json:"links"`
	Skipped int          `json:"skipped"`
	Applied bool         `json:"applied"`
}

// InviteCodeQR is the PNG of a registration link carrying an invite code.
type InviteCodeQR struct {
	Code string
	URL  string
	PNG  []byte
}

type ImportReport struct {
	People        int `json:"people"`
	Groups        int `json:"groups"`
	Memberships   int `json:"memberships"`
	Relationships int `json:"relationships"`
	Statuses      int `json:"statuses"`
	Notes         int `json:"notes"`
}

// AdminUseCase holds the staff tooling and batch jobs.
type AdminUseCase interface {
	GenerateInviteCodes(ctx context.Context, count int) ([]InviteCode, error)
	InviteCodeQR(ctx context.Context, code string) (*InviteCodeQR, error)
	ContentUpdateRequests(ctx context.Context) ([]ContentUpdateRequest, error)
	ResolveContentUpdateRequest(ctx context.Context, id uint, status ContentUpdateStatus) (*ContentUpdateRequest, error)
	DeriveFamily(ctx context.Context, apply bool) (*FamilyReport, error)
	GenerateManagement(ctx context.Context) (int64, error)
	Import(ctx context.Context, dump Dump) (*ImportReport, error)
	PersonNotes(ctx context.Context, personID uint) (*Notes, error)
	AddPersonNote(ctx context.Context, authorID, personID uint, payload NotePayload) (*PersonNote, error)
}

// GraphRepo is the whole storage surface. Transaction runs fn against a
// repo bound to one database transaction, rolling back when fn fails.
type GraphRepo interface {
	PersonRepo
	GroupRepo
	RelationshipRepo
	AccountRepo
	NoteRepo
	Transaction(ctx context.Context, fn func(tx GraphRepo) error) error
}
