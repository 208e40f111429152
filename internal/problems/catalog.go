package problems

import (
	"bytes"
	"embed"
	"io"
	"os"
	"sort"

	"github.com/copyleftdev/discopt/internal/optimization"
)

//go:embed data/schedule.csv data/group_trip.yaml data/dorms.yaml
var builtin embed.FS

// Spec selects a problem from the catalog. Bounds and Targets apply to the
// synthetic problems only.
type Spec struct {
	Name    string               `json:"name" yaml:"name"`
	Bounds  []optimization.Bound `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Targets []int                `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Catalog builds problems by name. Empty paths fall back to the data files
// compiled into the binary.
type Catalog struct {
	SchedulePath string
	TripPath     string
	DormsPath    string
}

var descriptions = map[string]string{
	FlightsName:   "group travel: pick an outbound and return flight per traveller",
	DormsName:     "assign students to two-person dorms by preference",
	QuadraticName: "squared distance to targets over caller bounds",
	LinearName:    "sum of the candidate over caller bounds",
}

// Names returns the catalog's problem names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(descriptions))
	for n := range descriptions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line summary per problem.
func (c Catalog) Describe() map[string]string {
	out := make(map[string]string, len(descriptions))
	for k, v := range descriptions {
		out[k] = v
	}
	return out
}

// Build constructs the problem named by spec.
func (c Catalog) Build(spec Spec) (Problem, error) {
	switch spec.Name {
	case FlightsName:
		return c.flights()
	case DormsName:
		return c.dorms()
	case QuadraticName:
		q, err := NewQuadratic(optimization.Domain(spec.Bounds), spec.Targets)
		if err != nil {
			return nil, err
		}
		return q, nil
	case LinearName:
		l, err := NewLinear(optimization.Domain(spec.Bounds))
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, optimization.WrapErrorf(ErrUnknownProblem, "%q", spec.Name).
			WithComponent(component).
			WithOperation("build")
	}
}

func (c Catalog) flights() (Problem, error) {
	raw, err := c.open(c.SchedulePath, "data/schedule.csv")
	if err != nil {
		return nil, err
	}
	schedule, err := ParseSchedule(raw)
	if err != nil {
		return nil, err
	}
	raw, err = c.open(c.TripPath, "data/group_trip.yaml")
	if err != nil {
		return nil, err
	}
	plan, err := ParseTripPlan(raw)
	if err != nil {
		return nil, err
	}
	f, err := NewFlights(plan, schedule)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c Catalog) dorms() (Problem, error) {
	raw, err := c.open(c.DormsPath, "data/dorms.yaml")
	if err != nil {
		return nil, err
	}
	plan, err := ParseDormPlan(raw)
	if err != nil {
		return nil, err
	}
	d, err := NewDorms(plan)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c Catalog) open(path, fallback string) (io.Reader, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = builtin.ReadFile(fallback)
	}
	if err != nil {
		return nil, optimization.WrapError(err, "failed to load problem data").
			WithComponent(component).
			WithOperation("load")
	}
	return bytes.NewReader(data), nil
}
