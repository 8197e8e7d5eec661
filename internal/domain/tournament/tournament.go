package tournament

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Match points. A bye is worth two points, between a draw and a win.
const (
	WinPoints  = 3
	DrawPoints = 1
	LossPoints = 0
	ByePoints  = 2
)

var (
	ErrTooFewClubs    = errors.New("tournament needs at least two clubs")
	ErrUnknownFixture = errors.New("unknown fixture")
	ErrFixturePlayed  = errors.New("fixture result already entered")
	ErrUnknownClub    = errors.New("club is not part of this tournament")
)

// Result carries win/draw/loss counts for one side of a fixture. League play
// enters exactly one of the three per fixture.
type Result struct {
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

type Fixture struct {
	ID         uuid.UUID `json:"id"`
	Round      int       `json:"round"`
	HomeID     uuid.UUID `json:"homeId"`
	AwayID     uuid.UUID `json:"awayId"`
	Bye        bool      `json:"bye"`
	Played     bool      `json:"played"`
	HomeResult Result    `json:"homeResult"`
	AwayResult Result    `json:"awayResult"`
}

type Row struct {
	ClubID uuid.UUID `json:"clubId"`
	Points int       `json:"points"`
	Played int       `json:"played"`
	Wins   int       `json:"wins"`
	Draws  int       `json:"draws"`
	Losses int       `json:"losses"`
	Byes   int       `json:"byes"`
}

// State is the full, plain-data representation of one competition's double
// round robin: every fixture plus the accumulated standings rows. It holds no
// behavior beyond its methods and round-trips through JSON unchanged, so it is
// persisted directly instead of passing through a separate codec object.
type State struct {
	CompetitionID uuid.UUID         `json:"competitionId"`
	Rounds        int               `json:"rounds"`
	Fixtures      []Fixture         `json:"fixtures"`
	Table         map[uuid.UUID]Row `json:"table"`
}

// Generate produces a double round-robin schedule for the given clubs using
// the circle method: the first club stays fixed while the rest rotate one
// position per round, and the second half mirrors the first with home and
// away reversed. An odd club count gets a rotating bye slot.
func Generate(competitionID uuid.UUID, clubIDs []uuid.UUID) (State, error) {
	if len(clubIDs) < 2 {
		return State{}, fmt.Errorf("%w: got %d", ErrTooFewClubs, len(clubIDs))
	}

	ring := make([]uuid.UUID, len(clubIDs))
	copy(ring, clubIDs)
	if len(ring)%2 != 0 {
		ring = append(ring, uuid.Nil) // bye slot
	}
	n := len(ring)
	roundsPerHalf := n - 1

	state := State{
		CompetitionID: competitionID,
		Rounds:        2 * roundsPerHalf,
		Table:         make(map[uuid.UUID]Row, len(clubIDs)),
	}
	for _, id := range clubIDs {
		state.Table[id] = Row{ClubID: id}
	}

	for round := 0; round < roundsPerHalf; round++ {
		for j := 0; j < n/2; j++ {
			home, away := ring[j], ring[n-1-j]
			state.Fixtures = append(state.Fixtures,
				newFixture(round+1, home, away),
				newFixture(roundsPerHalf+round+1, away, home),
			)
		}
		rotate(ring)
	}
	return state, nil
}

func newFixture(round int, home, away uuid.UUID) Fixture {
	f := Fixture{ID: uuid.New(), Round: round, HomeID: home, AwayID: away}
	if home == uuid.Nil || away == uuid.Nil {
		f.Bye = true
		if f.HomeID == uuid.Nil {
			f.HomeID, f.AwayID = f.AwayID, uuid.Nil
		} else {
			f.AwayID = uuid.Nil
		}
	}
	return f
}

// rotate keeps ring[0] fixed and shifts the remaining clubs one position.
func rotate(ring []uuid.UUID) {
	last := ring[len(ring)-1]
	copy(ring[2:], ring[1:len(ring)-1])
	ring[1] = last
}

// EnterResult records win/draw/loss counts for both sides of a fixture and
// updates the standings. Each fixture accepts exactly one result; a bye
// fixture awards the lone participant its bye points regardless of the
// supplied counts.
func (s *State) EnterResult(fixtureID uuid.UUID, home, away Result) error {
	idx := -1
	for i := range s.Fixtures {
		if s.Fixtures[i].ID == fixtureID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFixture, fixtureID)
	}
	fixture := &s.Fixtures[idx]
	if fixture.Played {
		return fmt.Errorf("%w: %s", ErrFixturePlayed, fixtureID)
	}

	if fixture.Bye {
		row, ok := s.Table[fixture.HomeID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownClub, fixture.HomeID)
		}
		row.Byes++
		row.Points += ByePoints
		s.Table[fixture.HomeID] = row
		fixture.Played = true
		return nil
	}

	homeRow, ok := s.Table[fixture.HomeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClub, fixture.HomeID)
	}
	awayRow, ok := s.Table[fixture.AwayID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClub, fixture.AwayID)
	}

	fixture.HomeResult = home
	fixture.AwayResult = away
	fixture.Played = true

	s.Table[fixture.HomeID] = applyResult(homeRow, home)
	s.Table[fixture.AwayID] = applyResult(awayRow, away)
	return nil
}

func applyResult(row Row, r Result) Row {
	row.Wins += r.Wins
	row.Draws += r.Draws
	row.Losses += r.Losses
	row.Played += r.Wins + r.Draws + r.Losses
	row.Points += WinPoints*r.Wins + DrawPoints*r.Draws + LossPoints*r.Losses
	return row
}

// Standings returns the table ranked by points descending. Ties fall to the
// caller-supplied secondary comparison; without one, tied clubs are ordered
// by id so the output stays deterministic. Goal difference is not tracked at
// this level.
func (s *State) Standings(secondary func(a, b Row) bool) []Row {
	rows := make([]Row, 0, len(s.Table))
	for _, row := range s.Table {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if secondary != nil {
			return secondary(rows[i], rows[j])
		}
		return rows[i].ClubID.String() < rows[j].ClubID.String()
	})
	return rows
}

// FixturesForRound returns the fixtures of one round in stable order.
func (s *State) FixturesForRound(round int) []Fixture {
	fixtures := make([]Fixture, 0)
	for _, f := range s.Fixtures {
		if f.Round == round {
			fixtures = append(fixtures, f)
		}
	}
	return fixtures
}

// Fixture looks a fixture up by id.
func (s *State) Fixture(id uuid.UUID) (Fixture, bool) {
	for _, f := range s.Fixtures {
		if f.ID == id {
			return f, true
		}
	}
	return Fixture{}, false
}
