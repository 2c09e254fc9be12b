package domain

import (
	"context"
	"time"

	"github.com/matuszelenak/trojsten-graph/vardate"
)

type MembershipNode struct {
	GroupID       uint          `json:"group_id"`
	GroupName     string        `json:"group_name"`
	GroupCategory GroupCategory `json:"group_category"`
	DateStarted   *vardate.Date `json:"date_started"`
	DateEnded     *vardate.Date `json:"date_ended"`
	Duration      vardate.Delta `json:"duration"`
}

type Node struct {
	ID          uint             `json:"id"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	MaidenName  *string          `json:"maiden_name"`
	Nickname    *string          `json:"nickname"`
	Gender      Gender           `json:"gender"`
	BirthDate   *vardate.Date    `json:"birth_date"`
	DeathDate   *vardate.Date    `json:"death_date"`
	Age         *vardate.Delta   `json:"age"`
	Memberships []MembershipNode `json:"memberships"`
}

type StatusEntry struct {
	Status    StatusKind    `json:"status"`
	DateStart *vardate.Date `json:"date_start"`
	DateEnd   *vardate.Date `json:"date_end"`
	Duration  vardate.Delta `json:"duration"`
}

type Edge struct {
	ID       uint          `json:"id"`
	Source   uint          `json:"source"`
	Target   uint          `json:"target"`
	Statuses []StatusEntry `json:"statuses"`
	Duration vardate.Delta `json:"duration"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewNode renders a person for graph output. Age runs from birth to death,
// or to today for the living, and is nil when the birth date is unknown.
func NewNode(p Person, today time.Time) Node {
	n := Node{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		MaidenName:  p.MaidenName,
		Nickname:    p.Nickname,
		Gender:      p.Gender,
		BirthDate:   p.BirthDate,
		DeathDate:   p.DeathDate,
		Memberships: make([]MembershipNode, 0, len(p.Memberships)),
	}
	if p.BirthDate != nil {
		age := vardate.Between(p.DeathDate, p.BirthDate, today)
		n.Age = &age
	}
	for _, m := range p.Memberships {
		n.Memberships = append(n.Memberships, MembershipNode{
			GroupID:       m.GroupID,
			GroupName:     m.Group.Name,
			GroupCategory: m.Group.Category,
			DateStarted:   m.DateStarted,
			DateEnded:     m.DateEnded,
			Duration:      MembershipDuration(m, today),
		})
	}
	return n
}

// NewEdge renders a relationship with its statuses in the given order.
func NewEdge(r Relationship, today time.Time) Edge {
	e := Edge{
		ID:       r.ID,
		Source:   r.FirstPersonID,
		Target:   r.SecondPersonID,
		Statuses: make([]StatusEntry, 0, len(r.Statuses)),
		Duration: TotalDuration(r.Statuses, today),
	}
	for _, s := range r.Statuses {
		e.Statuses = append(e.Statuses, StatusEntry{
			Status:    s.Status,
			DateStart: s.DateStart,
			DateEnd:   s.DateEnd,
			Duration:  StatusDuration(s, today),
		})
	}
	return e
}

// BuildGraph applies the third-party projection to a snapshot and renders it.
func BuildGraph(people []Person, rels []Relationship, today time.Time) Graph {
	visible, edges := ForGraphSerialization(people, rels)

	g := Graph{
		Nodes: make([]Node, 0, len(visible)),
		Edges: make([]Edge, 0, len(edges)),
	}
	for _, p := range visible {
		g.Nodes = append(g.Nodes, NewNode(p, today))
	}
	for _, r := range edges {
		g.Edges = append(g.Edges, NewEdge(r, today))
	}
	return g
}

type GraphUseCase interface {
	Graph(ctx context.Context, viewerID uint) (*Graph, error)
	People(ctx context.Context, viewerID uint) ([]Node, error)
	Relationships(ctx context.Context, viewerID uint) ([]Edge, error)
}
