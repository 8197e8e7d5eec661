package engine

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"

	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/entities"
	"github.com/vHugoObject/the-manager/internal/domain/match"
	"github.com/vHugoObject/the-manager/internal/domain/schedule"
)

var (
	// ErrMissingCalendarEntry means the save's current date has no calendar
	// entry. The calendar is built with one entry per day through season
	// end, so a miss is a structural inconsistency, not a quiet no-op.
	ErrMissingCalendarEntry = errors.New("no calendar entry for current date")

	// ErrUnknownEntity means a scheduled fixture references a club missing
	// from the save's entity maps.
	ErrUnknownEntity = errors.New("fixture references unknown entity")
)

// AdvanceDay simulates every fixture scheduled for the save's current date,
// applies the resulting statistics and standings updates, records the match
// logs, and moves the clock one calendar day forward. The save is mutated in
// place; persistence is the caller's concern. Fixtures of a single day are
// independent and simulated concurrently, with each fixture drawing from its
// own seed-derived random source so a fixed base seed reproduces the day.
func AdvanceDay(save *entities.Save, seed int64) ([]entities.MatchLog, error) {
	entry, ok := save.Calendar.Entry(save.CurrentDate)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingCalendarEntry, calendar.Key(save.CurrentDate))
	}

	refs := make([]calendar.Match, 0, len(entry.Matches))
	for _, ref := range entry.Matches {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].FixtureID.String() < refs[j].FixtureID.String()
	})

	outcomes := make([]match.Outcome, len(refs))
	simErrs := make([]error, len(refs))
	var wg sync.WaitGroup
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], simErrs[i] = simulateFixture(save, refs[i], seed)
		}(i)
	}
	wg.Wait()
	for _, err := range simErrs {
		if err != nil {
			return nil, err
		}
	}

	// Result application is serialized: standings and statistics updates
	// against the same tournament are not safe to interleave.
	logs := make([]entities.MatchLog, 0, len(outcomes))
	for i, outcome := range outcomes {
		ref := refs[i]
		ts, ok := save.Schedule.Tournament(ref.CompetitionID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", schedule.ErrScheduleMismatch, ref.CompetitionID)
		}
		if err := ts.EnterResult(ref.FixtureID, outcome.HomeResult, outcome.AwayResult); err != nil {
			return nil, fmt.Errorf("enter result for fixture %s: %w", ref.FixtureID, err)
		}
		save.Statistics.AddClubBatch(save.CurrentSeason, outcome.ClubDeltas)
		save.Statistics.AddPlayerBatch(save.CurrentSeason, outcome.PlayerDelta)
		save.Statistics.AddCompetition(save.CurrentSeason, ref.CompetitionID, outcome.Competition)
		if !outcome.Bye {
			save.MatchLogs = append(save.MatchLogs, outcome.Log)
			logs = append(logs, outcome.Log)
		}
	}

	save.CurrentDate = save.CurrentDate.AddDate(0, 0, 1)
	return logs, nil
}

func simulateFixture(save *entities.Save, ref calendar.Match, seed int64) (match.Outcome, error) {
	homeClub, ok := save.Clubs[ref.HomeClubID]
	if !ok {
		return match.Outcome{}, fmt.Errorf("%w: club %s", ErrUnknownEntity, ref.HomeClubID)
	}
	home := match.Side{Club: homeClub, Lineup: entities.Lineup(save.Players, homeClub)}

	if ref.Bye {
		return match.SimulateBye(save.CurrentDate, ref, home), nil
	}

	awayClub, ok := save.Clubs[ref.AwayClubID]
	if !ok {
		return match.Outcome{}, fmt.Errorf("%w: club %s", ErrUnknownEntity, ref.AwayClubID)
	}
	away := match.Side{Club: awayClub, Lineup: entities.Lineup(save.Players, awayClub)}

	rng := rand.New(rand.NewSource(fixtureSeed(seed, ref, save)))
	return match.Simulate(rng, save.CurrentDate, ref, home, away)
}

// fixtureSeed derives an independent per-fixture seed from the base seed, the
// current date and the fixture id.
func fixtureSeed(seed int64, ref calendar.Match, save *entities.Save) int64 {
	h := fnv.New64a()
	h.Write(ref.FixtureID[:])
	return seed ^ int64(h.Sum64()) ^ save.CurrentDate.Unix()
}
