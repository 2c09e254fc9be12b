package domain

import (
	"sort"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

// FamilyLink is a status the family derivation wants to add.
type FamilyLink struct {
	FirstID   uint          `json:"first_id"`
	SecondID  uint          `json:"second_id"`
	Kind      StatusKind    `json:"kind"`
	DateStart *vardate.Date `json:"date_start"`
}

type pair [2]uint

func pairOf(a, b uint) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// FamilyPlan is an adjacency view of the family ties in a snapshot plus the
// links derived from it.
type FamilyPlan struct {
	people  map[uint]Person
	kinds   map[pair]map[StatusKind]bool
	parents map[uint]map[uint]bool

	Links   []FamilyLink `json:"links"`
	Skipped int          `json:"skipped"`
}

func newFamilyPlan(people []Person) *FamilyPlan {
	p := &FamilyPlan{
		people:  make(map[uint]Person, len(people)),
		kinds:   make(map[pair]map[StatusKind]bool),
		parents: make(map[uint]map[uint]bool),
		Links:   []FamilyLink{},
	}
	for _, person := range people {
		p.people[person.ID] = person
	}
	return p
}

func (p *FamilyPlan) has(a, b uint, kind StatusKind) bool {
	return p.kinds[pairOf(a, b)][kind]
}

func (p *FamilyPlan) mark(a, b uint, kind StatusKind) {
	key := pairOf(a, b)
	if p.kinds[key] == nil {
		p.kinds[key] = make(map[StatusKind]bool)
	}
	p.kinds[key][kind] = true
}

// Add plans a new link. It refuses a self pair and a pair that already
// carries the kind, whether stored or planned.
func (p *FamilyPlan) Add(a, b uint, kind StatusKind, start *vardate.Date) error {
	if a == b {
		return ErrSelfRelationship
	}
	if p.has(a, b, kind) {
		return ErrDuplicateRelationship
	}
	p.mark(a, b, kind)
	p.Links = append(p.Links, FamilyLink{FirstID: a, SecondID: b, Kind: kind, DateStart: start})
	return nil
}

// olderOf orders two people by birth date. It fails when either date is
// unknown or both are equal, since the parent can not be told apart.
func (p *FamilyPlan) olderOf(a, b uint) (older, younger uint, ok bool) {
	pa, pb := p.people[a], p.people[b]
	if pa.BirthDate == nil || pb.BirthDate == nil {
		return 0, 0, false
	}
	switch vardate.Compare(*pa.BirthDate, *pb.BirthDate) {
	case -1:
		return a, b, true
	case 1:
		return b, a, true
	default:
		return 0, 0, false
	}
}

func (p *FamilyPlan) addParent(parent, child uint) {
	if p.parents[child] == nil {
		p.parents[child] = make(map[uint]bool)
	}
	p.parents[child][parent] = true
}

func (p *FamilyPlan) birthDate(id uint) *vardate.Date {
	return p.people[id].BirthDate
}

// PlanFamily derives missing family statuses from the stored ones. Children
// sharing a parent become siblings, and a parent of one sibling becomes a
// parent of the others. Every stored status counts as existing regardless
// of its confirmation, so the job never duplicates a tie.
func PlanFamily(people []Person, rels []Relationship) *FamilyPlan {
	plan := newFamilyPlan(people)

	for _, r := range rels {
		for _, s := range r.Statuses {
			plan.mark(r.FirstPersonID, r.SecondPersonID, s.Status)
			if s.Status != StatusParentChild {
				continue
			}
			if parent, child, ok := plan.olderOf(r.FirstPersonID, r.SecondPersonID); ok {
				plan.addParent(parent, child)
			}
		}
	}

	children := make(map[uint][]uint)
	for _, child := range sortedKeys(plan.parents) {
		for _, parent := range sortedKeys(plan.parents[child]) {
			children[parent] = append(children[parent], child)
		}
	}

	for _, parent := range sortedKeys(children) {
		kids := children[parent]
		for i := 0; i < len(kids); i++ {
			for j := i + 1; j < len(kids); j++ {
				plan.addOrSkip(kids[i], kids[j], StatusSibling, plan.laterBirth(kids[i], kids[j]))
			}
		}
	}

	siblings := make(map[uint][]uint)
	for key, kinds := range plan.kinds {
		if kinds[StatusSibling] {
			siblings[key[0]] = append(siblings[key[0]], key[1])
			siblings[key[1]] = append(siblings[key[1]], key[0])
		}
	}
	for _, child := range sortedKeys(siblings) {
		sibs := siblings[child]
		sort.Slice(sibs, func(i, j int) bool { return sibs[i] < sibs[j] })
		for _, parent := range sortedKeys(plan.parents[child]) {
			for _, sib := range sibs {
				if plan.parents[sib][parent] {
					continue
				}
				if err := plan.Add(parent, sib, StatusParentChild, plan.birthDate(sib)); err != nil {
					plan.Skipped++
					continue
				}
				plan.addParent(parent, sib)
			}
		}
	}

	return plan
}

func (p *FamilyPlan) addOrSkip(a, b uint, kind StatusKind, start *vardate.Date) {
	if err := p.Add(a, b, kind, start); err != nil {
		p.Skipped++
	}
}

// laterBirth is the birth date of the younger of two siblings, the day the
// sibling tie began.
func (p *FamilyPlan) laterBirth(a, b uint) *vardate.Date {
	da, db := p.birthDate(a), p.birthDate(b)
	switch {
	case da == nil:
		return db
	case db == nil:
		return da
	case da.After(*db):
		return da
	default:
		return db
	}
}

// PlanManagement lets the older side of every parent-child status manage
// the younger one. Pairs with an unknown or equal birth date are skipped.
func PlanManagement(people []Person, rels []Relationship) []ManagementAuthority {
	plan := newFamilyPlan(people)
	seen := make(map[pair]bool)
	out := []ManagementAuthority{}

	for _, r := range rels {
		for _, s := range r.Statuses {
			if s.Status != StatusParentChild {
				continue
			}
			parent, child, ok := plan.olderOf(r.FirstPersonID, r.SecondPersonID)
			if !ok || seen[pair{parent, child}] {
				continue
			}
			seen[pair{parent, child}] = true
			out = append(out, ManagementAuthority{ManagerID: parent, SubjectID: child})
		}
	}
	return out
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
