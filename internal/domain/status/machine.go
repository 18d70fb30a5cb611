// Package status defines the document lifecycle state machines.
// Every status change in the system is validated against a fixed
// adjacency table; anything not in the table is rejected.
package status

import (
	"procura/internal/core/apperror"
)

// Machine is a fixed adjacency table over document statuses.
type Machine struct {
	entity string
	edges  map[string][]string
}

// NewMachine creates a machine for the given entity name.
// The edges map lists allowed targets per source status; statuses that
// appear only as targets are terminal.
func NewMachine(entity string, edges map[string][]string) *Machine {
	return &Machine{entity: entity, edges: edges}
}

// Known reports whether the status appears anywhere in the table.
func (m *Machine) Known(s string) bool {
	if _, ok := m.edges[s]; ok {
		return true
	}
	for _, targets := range m.edges {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	return false
}

// Can reports whether from -> to is an allowed transition.
func (m *Machine) Can(from, to string) bool {
	for _, t := range m.edges[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Validate returns an error unless from -> to is allowed.
func (m *Machine) Validate(from, to string) error {
	if !m.Known(to) {
		return apperror.NewValidation("unknown status").
			WithDetail("entity", m.entity).
			WithDetail("status", to)
	}
	if !m.Can(from, to) {
		return apperror.NewInvalidTransition(m.entity, from, to)
	}
	return nil
}

// Targets returns the allowed next statuses for from.
func (m *Machine) Targets(from string) []string {
	targets := m.edges[from]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// IsTerminal reports whether the status has no outgoing transitions.
func (m *Machine) IsTerminal(s string) bool {
	return len(m.edges[s]) == 0
}

// Path finds a transition sequence from -> ... -> to using BFS.
// Returns the intermediate hops including to, or nil when to is
// unreachable. Used by status derivation to advance stepwise when a
// document skipped intermediate events.
func (m *Machine) Path(from, to string) []string {
	if from == to {
		return []string{}
	}
	type node struct {
		status string
		path   []string
	}
	visited := map[string]bool{from: true}
	queue := []node{{status: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range m.edges[cur.status] {
			if visited[next] {
				continue
			}
			path := append(append([]string{}, cur.path...), next)
			if next == to {
				return path
			}
			visited[next] = true
			queue = append(queue, node{status: next, path: path})
		}
	}
	return nil
}
