package problems

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/discopt/internal/optimization"
)

// FlightsName is the catalog name of the group travel problem.
const FlightsName = "flights"

// Late arrival past the earliest departure costs an extra day of car rental.
const extraDayPenalty = 50

// Flight is one scheduled leg. Times are minutes after midnight.
type Flight struct {
	Origin      string
	Destination string
	Depart      int
	Arrive      int
	Price       int
}

type route struct {
	from, to string
}

// Schedule lists the flights of every route in file order.
type Schedule map[route][]Flight

// Between returns the flights from origin to destination.
func (s Schedule) Between(origin, destination string) []Flight {
	return s[route{origin, destination}]
}

// ParseSchedule reads rows of origin,destination,depart,arrive,price where
// the times are H:MM on a 24 hour clock.
func ParseSchedule(r io.Reader) (Schedule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5
	cr.TrimLeadingSpace = true

	s := make(Schedule)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalid("schedule line %d: %v", line, err)
		}
		f, err := parseFlight(rec)
		if err != nil {
			return nil, invalid("schedule line %d: %v", line, err)
		}
		k := route{f.Origin, f.Destination}
		s[k] = append(s[k], f)
	}
	if len(s) == 0 {
		return nil, invalid("schedule has no flights")
	}
	return s, nil
}

func parseFlight(rec []string) (Flight, error) {
	depart, err := minutes(rec[2])
	if err != nil {
		return Flight{}, err
	}
	arrive, err := minutes(rec[3])
	if err != nil {
		return Flight{}, err
	}
	price, err := strconv.Atoi(strings.TrimSpace(rec[4]))
	if err != nil {
		return Flight{}, fmt.Errorf("price %q: %w", rec[4], err)
	}
	return Flight{
		Origin:      strings.TrimSpace(rec[0]),
		Destination: strings.TrimSpace(rec[1]),
		Depart:      depart,
		Arrive:      arrive,
		Price:       price,
	}, nil
}

func minutes(clock string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func clock(m int) string {
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// Traveller is one member of the group and the airport they leave from.
type Traveller struct {
	Name   string `yaml:"name"`
	Origin string `yaml:"origin"`
}

// TripPlan is the group meeting at Destination.
type TripPlan struct {
	Destination string      `yaml:"destination"`
	Travellers  []Traveller `yaml:"travellers"`
}

// ParseTripPlan decodes a YAML trip plan.
func ParseTripPlan(r io.Reader) (TripPlan, error) {
	var p TripPlan
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return TripPlan{}, invalid("trip plan: %v", err)
	}
	return p, nil
}

// Flights chooses an outbound and a return flight for every traveller.
// Candidate element 2i picks traveller i's outbound flight and element 2i+1
// their return flight, both as indices into the route's schedule.
type Flights struct {
	plan     TripPlan
	outbound [][]Flight
	inbound  [][]Flight
	domain   optimization.Domain
}

// NewFlights binds a trip plan to a schedule. Every traveller needs at least
// one flight in each direction.
func NewFlights(plan TripPlan, schedule Schedule) (*Flights, error) {
	if plan.Destination == "" {
		return nil, invalid("trip plan has no destination")
	}
	if len(plan.Travellers) == 0 {
		return nil, invalid("trip plan has no travellers")
	}

	f := &Flights{
		plan:     plan,
		outbound: make([][]Flight, len(plan.Travellers)),
		inbound:  make([][]Flight, len(plan.Travellers)),
		domain:   make(optimization.Domain, 0, 2*len(plan.Travellers)),
	}
	for i, t := range plan.Travellers {
		out := schedule.Between(t.Origin, plan.Destination)
		back := schedule.Between(plan.Destination, t.Origin)
		if len(out) == 0 || len(back) == 0 {
			return nil, invalid("no flights between %s and %s for %s", t.Origin, plan.Destination, t.Name)
		}
		f.outbound[i] = out
		f.inbound[i] = back
		f.domain = append(f.domain,
			optimization.Bound{Min: 0, Max: len(out) - 1},
			optimization.Bound{Min: 0, Max: len(back) - 1},
		)
	}
	return f, nil
}

// Name implements Problem.
func (f *Flights) Name() string { return FlightsName }

// Domain implements Problem.
func (f *Flights) Domain() optimization.Domain { return f.domain }

func (f *Flights) legs(c optimization.Candidate, i int) (Flight, Flight, error) {
	o, r := c[2*i], c[2*i+1]
	if o < 0 || o >= len(f.outbound[i]) || r < 0 || r >= len(f.inbound[i]) {
		return Flight{}, Flight{}, optimization.WrapErrorf(ErrOutOfRange, "flights %d/%d for %s", o, r, f.plan.Travellers[i].Name).
			WithComponent(component).
			WithOperation(FlightsName)
	}
	return f.outbound[i][o], f.inbound[i][r], nil
}

// Cost is the total fare plus every minute someone waits at the destination
// airport, with a penalty when the last arrival is after the first departure.
func (f *Flights) Cost(c optimization.Candidate) (float64, error) {
	if err := checkLength(FlightsName, f.domain, c); err != nil {
		return 0, err
	}

	n := len(f.plan.Travellers)
	out := make([]Flight, n)
	back := make([]Flight, n)
	price := 0
	latestArrival, earliestDeparture := 0, 24*60
	for i := 0; i < n; i++ {
		o, r, err := f.legs(c, i)
		if err != nil {
			return 0, err
		}
		out[i], back[i] = o, r
		price += o.Price + r.Price
		latestArrival = max(latestArrival, o.Arrive)
		earliestDeparture = min(earliestDeparture, r.Depart)
	}

	wait := 0
	for i := 0; i < n; i++ {
		wait += latestArrival - out[i].Arrive
		wait += back[i].Depart - earliestDeparture
	}
	if latestArrival > earliestDeparture {
		price += extraDayPenalty
	}
	return float64(price + wait), nil
}

// Describe prints one line per traveller with both legs.
func (f *Flights) Describe(c optimization.Candidate) ([]string, error) {
	if err := checkLength(FlightsName, f.domain, c); err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(f.plan.Travellers))
	for i, t := range f.plan.Travellers {
		o, r, err := f.legs(c, i)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%-8s %s %5s-%-5s $%3d %5s-%-5s $%3d",
			t.Name, t.Origin,
			clock(o.Depart), clock(o.Arrive), o.Price,
			clock(r.Depart), clock(r.Arrive), r.Price))
	}
	return lines, nil
}
