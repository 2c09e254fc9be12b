package domain

import (
	"slices"
	"sort"
	"time"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

// StatusFilter is a named predicate over relationship statuses. Filters are
// independent and combine with AND in FilterStatuses.
type StatusFilter func(RelationshipStatus) bool

// ForDate keeps statuses active on d. A status without a start date never
// matches, the same way a NULL comparison fails in SQL.
func ForDate(d vardate.Date) StatusFilter {
	return func(s RelationshipStatus) bool {
		if s.DateStart == nil || s.DateStart.After(d) {
			return false
		}
		return s.DateEnd == nil || !s.DateEnd.Before(d)
	}
}

func Romantic() StatusFilter {
	return func(s RelationshipStatus) bool { return s.Status.IsRomantic() }
}

func Confirmed() StatusFilter {
	return func(s RelationshipStatus) bool { return s.IsConfirmed() }
}

func VisibleStatus() StatusFilter {
	return func(s RelationshipStatus) bool { return s.Visible }
}

func Kinds(kinds ...StatusKind) StatusFilter {
	return func(s RelationshipStatus) bool { return slices.Contains(kinds, s.Status) }
}

// FilterStatuses returns the statuses matching every filter, in input order.
func FilterStatuses(statuses []RelationshipStatus, filters ...StatusFilter) []RelationshipStatus {
	out := make([]RelationshipStatus, 0, len(statuses))
next:
	for _, s := range statuses {
		for _, f := range filters {
			if !f(s) {
				continue next
			}
		}
		out = append(out, s)
	}
	return out
}

// CurrentStatus picks the single status active on d. Overlaps resolve to
// the latest start, then the ongoing or latest end, then the highest id.
func CurrentStatus(statuses []RelationshipStatus, d vardate.Date, filters ...StatusFilter) (RelationshipStatus, bool) {
	active := FilterStatuses(statuses, append([]StatusFilter{ForDate(d)}, filters...)...)
	if len(active) == 0 {
		return RelationshipStatus{}, false
	}

	best := active[0]
	for _, s := range active[1:] {
		if outranks(s, best) {
			best = s
		}
	}
	return best, true
}

func outranks(a, b RelationshipStatus) bool {
	if c := compareNullable(a.DateStart, b.DateStart); c != 0 {
		return c > 0
	}
	switch {
	case a.DateEnd == nil && b.DateEnd != nil:
		return true
	case a.DateEnd != nil && b.DateEnd == nil:
		return false
	case a.DateEnd != nil && b.DateEnd != nil:
		if c := vardate.Compare(*a.DateEnd, *b.DateEnd); c != 0 {
			return c > 0
		}
	}
	return a.ID > b.ID
}

// compareNullable sorts nil before any date.
func compareNullable(a, b *vardate.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return vardate.Compare(*a, *b)
	}
}

// RecentStatuses lists the statuses of rel newest first, undated ones last.
// Third parties only get the visible and mutually confirmed ones.
func RecentStatuses(rel Relationship, thirdParty bool) []RelationshipStatus {
	var statuses []RelationshipStatus
	if thirdParty {
		statuses = FilterStatuses(rel.Statuses, VisibleStatus(), Confirmed())
	} else {
		statuses = slices.Clone(rel.Statuses)
		if statuses == nil {
			statuses = []RelationshipStatus{}
		}
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]
		switch {
		case a.DateStart == nil && b.DateStart == nil:
			return a.ID > b.ID
		case a.DateStart == nil:
			return false
		case b.DateStart == nil:
			return true
		}
		if c := vardate.Compare(*a.DateStart, *b.DateStart); c != 0 {
			return c > 0
		}
		return a.ID > b.ID
	})
	return statuses
}

func StatusDuration(s RelationshipStatus, today time.Time) vardate.Delta {
	return vardate.Between(s.DateEnd, s.DateStart, today)
}

func MembershipDuration(m GroupMembership, today time.Time) vardate.Delta {
	return vardate.Between(m.DateEnded, m.DateStarted, today)
}

// TotalDuration sums the durations of statuses. The result is never precise.
func TotalDuration(statuses []RelationshipStatus, today time.Time) vardate.Delta {
	deltas := make([]vardate.Delta, 0, len(statuses))
	for _, s := range statuses {
		deltas = append(deltas, StatusDuration(s, today))
	}
	return vardate.Sum(deltas...)
}

// PersonFilter is a named predicate over people.
type PersonFilter func(Person) bool

// RelationshipIndex maps a person id to the relationships they take part in.
type RelationshipIndex map[uint][]Relationship

func IndexByPerson(rels []Relationship) RelationshipIndex {
	idx := make(RelationshipIndex)
	for _, r := range rels {
		idx[r.FirstPersonID] = append(idx[r.FirstPersonID], r)
		idx[r.SecondPersonID] = append(idx[r.SecondPersonID], r)
	}
	return idx
}

func (idx RelationshipIndex) hasStatus(personID uint, filters ...StatusFilter) bool {
	for _, r := range idx[personID] {
		if len(FilterStatuses(r.Statuses, filters...)) > 0 {
			return true
		}
	}
	return false
}

func VisiblePerson() PersonFilter {
	return func(p Person) bool { return p.Visible }
}

// InRomanticRelationship keeps people with a romantic status active on d.
func InRomanticRelationship(idx RelationshipIndex, d vardate.Date) PersonFilter {
	return func(p Person) bool { return idx.hasStatus(p.ID, ForDate(d), Romantic()) }
}

// Single keeps people without a romantic status active on d.
func Single(idx RelationshipIndex, d vardate.Date) PersonFilter {
	romantic := InRomanticRelationship(idx, d)
	return func(p Person) bool { return !romantic(p) }
}

func HasRelationshipStatus(idx RelationshipIndex, d vardate.Date, kinds ...StatusKind) PersonFilter {
	return func(p Person) bool { return idx.hasStatus(p.ID, ForDate(d), Kinds(kinds...)) }
}

// InAgeRange keeps people at least from and at most to years old on today.
// Either bound may be nil. People with an unknown birth date never match a
// bounded range.
func InAgeRange(from, to *int, today time.Time) PersonFilter {
	now := vardate.Today(today)
	return func(p Person) bool {
		if from == nil && to == nil {
			return true
		}
		if p.BirthDate == nil {
			return false
		}
		if from != nil && p.BirthDate.After(now.AddYears(-*from)) {
			return false
		}
		if to != nil && p.BirthDate.Before(now.AddYears(-*to)) {
			return false
		}
		return true
	}
}

// FilterPeople returns the people matching every filter, in input order.
func FilterPeople(people []Person, filters ...PersonFilter) []Person {
	out := make([]Person, 0, len(people))
next:
	for _, p := range people {
		for _, f := range filters {
			if !f(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// ForGraphSerialization reduces a full snapshot to what third parties may
// see: visible people ordered by id with visible memberships in visible
// groups, and relationships between them carrying only visible, confirmed
// statuses. Relationships left without a status are dropped.
func ForGraphSerialization(people []Person, rels []Relationship) ([]Person, []Relationship) {
	visible := FilterPeople(people, VisiblePerson())
	sort.Slice(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })

	byID := make(map[uint]Person, len(visible))
	for i := range visible {
		memberships := make([]GroupMembership, 0, len(visible[i].Memberships))
		for _, m := range visible[i].Memberships {
			if m.Visible && m.Group.Visible {
				memberships = append(memberships, m)
			}
		}
		visible[i].Memberships = memberships
		byID[visible[i].ID] = visible[i]
	}

	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		first, ok1 := byID[r.FirstPersonID]
		second, ok2 := byID[r.SecondPersonID]
		if !ok1 || !ok2 {
			continue
		}
		statuses := RecentStatuses(r, true)
		if len(statuses) == 0 {
			continue
		}
		r.FirstPerson, r.SecondPerson = first, second
		r.Statuses = statuses
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return visible, out
}
