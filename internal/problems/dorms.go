package problems

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// DormsName is the catalog name of the dorm assignment problem.
const DormsName = "dorms"

const (
	slotsPerDorm     = 2
	secondChoiceCost = 1
	unlistedCost     = 3
)

// Student ranks up to two dorms, first choice first.
type Student struct {
	Name  string   `yaml:"name"`
	Prefs []string `yaml:"prefs"`
}

// DormPlan lists the dorms with free places and the students to house.
type DormPlan struct {
	Dorms    []string  `yaml:"dorms"`
	Students []Student `yaml:"students"`
}

// ParseDormPlan decodes a YAML dorm plan.
func ParseDormPlan(r io.Reader) (DormPlan, error) {
	var p DormPlan
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return DormPlan{}, invalid("dorm plan: %v", err)
	}
	return p, nil
}

// Dorms assigns students to two-person dorms. Candidate element i picks one
// of the places still open when student i chooses, so the bound shrinks by
// one per student and every in-bounds candidate is a valid assignment.
type Dorms struct {
	plan   DormPlan
	domain optimization.Domain
}

// NewDorms validates the plan and builds its domain.
func NewDorms(plan DormPlan) (*Dorms, error) {
	if len(plan.Dorms) == 0 {
		return nil, invalid("dorm plan has no dorms")
	}
	slots := slotsPerDorm * len(plan.Dorms)
	if len(plan.Students) == 0 || len(plan.Students) > slots {
		return nil, invalid("dorm plan has %d students for %d places", len(plan.Students), slots)
	}
	known := make(map[string]bool, len(plan.Dorms))
	for _, d := range plan.Dorms {
		if known[d] {
			return nil, invalid("dorm %q listed twice", d)
		}
		known[d] = true
	}
	for _, s := range plan.Students {
		if len(s.Prefs) > 2 {
			return nil, invalid("student %s ranks %d dorms, at most 2 allowed", s.Name, len(s.Prefs))
		}
		for _, p := range s.Prefs {
			if !known[p] {
				return nil, invalid("student %s prefers unknown dorm %q", s.Name, p)
			}
		}
	}

	domain := make(optimization.Domain, len(plan.Students))
	for i := range domain {
		domain[i] = optimization.Bound{Min: 0, Max: slots - 1 - i}
	}
	return &Dorms{plan: plan, domain: domain}, nil
}

// Name implements Problem.
func (d *Dorms) Name() string { return DormsName }

// Domain implements Problem.
func (d *Dorms) Domain() optimization.Domain { return d.domain }

// assign resolves a candidate to the dorm index of every student.
func (d *Dorms) assign(c optimization.Candidate) ([]int, error) {
	if err := checkLength(DormsName, d.domain, c); err != nil {
		return nil, err
	}
	open := make([]int, 0, slotsPerDorm*len(d.plan.Dorms))
	for i := range d.plan.Dorms {
		for j := 0; j < slotsPerDorm; j++ {
			open = append(open, i)
		}
	}
	out := make([]int, len(c))
	for i, x := range c {
		if x < 0 || x >= len(open) {
			return nil, optimization.WrapErrorf(ErrOutOfRange, "place %d for %s, %d open", x, d.plan.Students[i].Name, len(open)).
				WithComponent(component).
				WithOperation(DormsName)
		}
		out[i] = open[x]
		open = append(open[:x], open[x+1:]...)
	}
	return out, nil
}

// Cost charges nothing for a first choice, 1 for a second choice and 3 for
// any other dorm.
func (d *Dorms) Cost(c optimization.Candidate) (float64, error) {
	placed, err := d.assign(c)
	if err != nil {
		return 0, err
	}
	cost := 0
	for i, dorm := range placed {
		cost += d.prefCost(d.plan.Students[i], d.plan.Dorms[dorm])
	}
	return float64(cost), nil
}

func (d *Dorms) prefCost(s Student, dorm string) int {
	for rank, p := range s.Prefs {
		if p == dorm {
			return rank * secondChoiceCost
		}
	}
	return unlistedCost
}

// Describe prints each student with the dorm they were given.
func (d *Dorms) Describe(c optimization.Candidate) ([]string, error) {
	placed, err := d.assign(c)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(placed))
	for i, dorm := range placed {
		lines[i] = fmt.Sprintf("%-10s %s", d.plan.Students[i].Name, d.plan.Dorms[dorm])
	}
	return lines, nil
}
