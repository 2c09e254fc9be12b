package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

// Dump model names of the legacy export.
const (
	DumpPerson     = "graph.person"
	DumpGroup      = "graph.group"
	DumpMembership = "graph.membership"
	DumpEvent      = "graph.event"
)

// DumpRecord is one object of the legacy export. Fields is a union of the
// attributes of every model; each model only fills its own.
type DumpRecord struct {
	Model  string     `yaml:"model" json:"model"`
	PK     uint       `yaml:"pk" json:"pk"`
	Fields DumpFields `yaml:"fields" json:"fields"`
}

type DumpFields struct {
	// person, group
	Name       string  `yaml:"name" json:"name"`
	Surname    string  `yaml:"surname" json:"surname"`
	MaidenName *string `yaml:"maidenName" json:"maidenName"`
	Nickname   *string `yaml:"nickname" json:"nickname"`
	Sex        string  `yaml:"sex" json:"sex"`
	BirthDate  string  `yaml:"birthDate" json:"birthDate"`
	DeathDate  string  `yaml:"deathDate" json:"deathDate"`
	Visible    bool    `yaml:"visible" json:"visible"`
	Category   string  `yaml:"category" json:"category"`
	Parent     *uint   `yaml:"parent" json:"parent"`

	// membership
	Person    uint   `yaml:"person" json:"person"`
	Group     uint   `yaml:"group" json:"group"`
	StartDate string `yaml:"startDate" json:"startDate"`
	EndDate   string `yaml:"endDate" json:"endDate"`

	// event
	PersonFrom uint   `yaml:"personFrom" json:"personFrom"`
	PersonTo   uint   `yaml:"personTo" json:"personTo"`
	Date       string `yaml:"date" json:"date"`
	Type       string `yaml:"type" json:"type"`

	// every model
	Comment     string `yaml:"comment" json:"comment"`
	DataComment string `yaml:"dataComment" json:"dataComment"`
}

// DumpNote is a note carried by the comments of a legacy record.
type DumpNote struct {
	Type NoteType
	Text string
}

// Notes turns the public comment and the private data comment into notes.
func (f DumpFields) Notes() []DumpNote {
	var out []DumpNote
	if text := strings.TrimSpace(f.Comment); text != "" {
		out = append(out, DumpNote{Type: NotePublic, Text: text})
	}
	if text := strings.TrimSpace(f.DataComment); text != "" {
		out = append(out, DumpNote{Type: NotePrivate, Text: text})
	}
	return out
}

type Dump []DumpRecord

// Of returns the records of one model in dump order.
func (d Dump) Of(model string) []DumpRecord {
	var out []DumpRecord
	for _, r := range d {
		if r.Model == model {
			out = append(out, r)
		}
	}
	return out
}

func GenderFromSex(sex string) Gender {
	switch sex {
	case "M":
		return GenderMale
	case "F":
		return GenderFemale
	default:
		return GenderOther
	}
}

func CategoryFromCode(code string) (GroupCategory, error) {
	switch code {
	case "E":
		return CategoryElementarySchool, nil
	case "H":
		return CategoryHighSchool, nil
	case "U":
		return CategoryUniversity, nil
	case "S":
		return CategorySeminar, nil
	case "O":
		return CategoryOther, nil
	default:
		return 0, fmt.Errorf("unknown group category %q", code)
	}
}

// eventKinds maps legacy event types to statuses. A zero kind ends the
// running status.
var eventKinds = map[string]StatusKind{
	"SIB": StatusSibling,
	"DAT": StatusDating,
	"DRB": StatusRumour,
	"NDR": 0,
	"BRE": 0,
	"ENG": StatusEngaged,
	"MAR": StatusMarried,
	"DIV": 0,
	"CHI": StatusParentChild,
	"REL": StatusBloodRelative,
}

// ParseDumpDate reads an optional legacy date.
func ParseDumpDate(s string) (*vardate.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := vardate.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", s, err)
	}
	return &d, nil
}

// FoldedStatus is a status rebuilt from legacy events together with the
// notes of the events that opened and closed it.
type FoldedStatus struct {
	RelationshipStatus
	Notes []RelationshipStatusNote
}

func eventNotes(f DumpFields, reason NoteReason) []RelationshipStatusNote {
	var out []RelationshipStatusNote
	for _, n := range f.Notes() {
		out = append(out, RelationshipStatusNote{Reason: reason, Text: n.Text, Type: n.Type})
	}
	return out
}

// FoldEvents turns the dated events of one pair into statuses. Events are
// replayed by date: a status event opens a status, an ending event closes
// the open romantic one. Ending events with nothing to close are dropped
// along with their comments. Imported statuses count as confirmed by both
// sides.
func FoldEvents(events []DumpRecord) ([]FoldedStatus, error) {
	type event struct {
		date    *vardate.Date
		kind    StatusKind
		visible bool
		fields  DumpFields
	}

	parsed := make([]event, 0, len(events))
	for _, e := range events {
		kind, ok := eventKinds[e.Fields.Type]
		if !ok {
			return nil, fmt.Errorf("event %d: unknown type %q", e.PK, e.Fields.Type)
		}
		date, err := ParseDumpDate(e.Fields.Date)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.PK, err)
		}
		parsed = append(parsed, event{date: date, kind: kind, visible: e.Fields.Visible, fields: e.Fields})
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return compareNullable(parsed[i].date, parsed[j].date) < 0
	})

	var statuses []FoldedStatus
	open := -1
	for _, e := range parsed {
		if e.kind == 0 {
			if open >= 0 && (statuses[open].Status.IsRomantic() || statuses[open].Status == StatusRumour) {
				statuses[open].DateEnd = e.date
				statuses[open].Notes = append(statuses[open].Notes, eventNotes(e.fields, ReasonStatusEnd)...)
			}
			open = -1
			continue
		}
		statuses = append(statuses, FoldedStatus{
			RelationshipStatus: RelationshipStatus{
				Status:      e.kind,
				DateStart:   e.date,
				ConfirmedBy: ConfirmedByBoth,
				Visible:     e.visible,
			},
			Notes: eventNotes(e.fields, ReasonStatusStart),
		})
		open = len(statuses) - 1
	}
	return statuses, nil
}
