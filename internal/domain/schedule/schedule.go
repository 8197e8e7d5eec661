package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/tournament"
)

var (
	// ErrUnschedulableRounds means the calendar ran out of eligible match
	// days before every round was placed. Season setup must abort rather
	// than silently drop fixtures.
	ErrUnschedulableRounds = errors.New("not enough eligible match days for all rounds")

	// ErrScheduleMismatch means a stored schedule references a competition
	// that no longer exists among the save's entities.
	ErrScheduleMismatch = errors.New("schedule references unknown competition")
)

// State is the serializable scheduling state of a whole save: one tournament
// state per competition. It is plain data and is stored as-is; loading it
// back yields an operable engine without a replay step.
type State struct {
	Season      string                          `json:"season"`
	Tournaments map[uuid.UUID]*tournament.State `json:"tournaments"`
}

// NewSeason generates a double round-robin tournament for every competition.
// The map value is the competition's participating club ids.
func NewSeason(season string, competitions map[uuid.UUID][]uuid.UUID) (State, error) {
	state := State{
		Season:      season,
		Tournaments: make(map[uuid.UUID]*tournament.State, len(competitions)),
	}
	for competitionID, clubIDs := range competitions {
		ts, err := tournament.Generate(competitionID, clubIDs)
		if err != nil {
			return State{}, fmt.Errorf("competition %s: %w", competitionID, err)
		}
		state.Tournaments[competitionID] = &ts
	}
	return state, nil
}

// Allocate maps every tournament's rounds onto the calendar days satisfying
// the match-day predicate: round r's fixtures land on the r-th eligible day,
// each competition allocated independently against the same day set and
// merged per date. Fixture ids are competition-scoped, so merged entries
// cannot collide.
func Allocate(cal calendar.Calendar, state State, eligible func(time.Time) bool) error {
	matchDays := cal.MatchDays(eligible)

	// Deterministic order across competitions.
	competitionIDs := make([]uuid.UUID, 0, len(state.Tournaments))
	for id := range state.Tournaments {
		competitionIDs = append(competitionIDs, id)
	}
	sort.Slice(competitionIDs, func(i, j int) bool {
		return competitionIDs[i].String() < competitionIDs[j].String()
	})

	for _, competitionID := range competitionIDs {
		ts := state.Tournaments[competitionID]
		if ts.Rounds > len(matchDays) {
			return fmt.Errorf("%w: competition %s needs %d rounds, calendar has %d eligible days",
				ErrUnschedulableRounds, competitionID, ts.Rounds, len(matchDays))
		}
		for round := 1; round <= ts.Rounds; round++ {
			day := matchDays[round-1]
			entry := cal[day]
			for _, f := range ts.FixturesForRound(round) {
				entry.Matches[f.ID] = calendar.Match{
					FixtureID:     f.ID,
					CompetitionID: competitionID,
					Season:        state.Season,
					Round:         f.Round,
					HomeClubID:    f.HomeID,
					AwayClubID:    f.AwayID,
					Bye:           f.Bye,
				}
			}
		}
	}
	return nil
}

// Validate checks a loaded schedule state against the known competition set.
// Every load of a save passes through here before the state is used.
func Validate(state State, knownCompetition func(uuid.UUID) bool) error {
	for competitionID := range state.Tournaments {
		if !knownCompetition(competitionID) {
			return fmt.Errorf("%w: %s", ErrScheduleMismatch, competitionID)
		}
	}
	return nil
}

// Tournament returns the tournament state for one competition.
func (s State) Tournament(competitionID uuid.UUID) (*tournament.State, bool) {
	ts, ok := s.Tournaments[competitionID]
	return ts, ok
}
