package match

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/entities"
)

func testPlayer(clubID uuid.UUID, position string, rating float64) entities.Player {
	return entities.Player{
		ID:       uuid.New(),
		ClubID:   clubID,
		Position: position,
		Skills: entities.Skills{
			BallControl:   rating,
			Passing:       rating,
			Shooting:      rating,
			Tackling:      rating,
			Mental:        rating,
			Physical:      rating,
			GKPositioning: rating,
			GKReflexes:    rating,
			GKHandling:    rating,
		},
	}
}

func testSide(name string, rating float64, withKeeper bool) Side {
	club := entities.Club{ID: uuid.New(), Name: name}
	lineup := make([]entities.Player, 0, 11)
	if withKeeper {
		lineup = append(lineup, testPlayer(club.ID, entities.PositionGoalkeeper, rating))
	}
	for i := 0; i < 10; i++ {
		lineup = append(lineup, testPlayer(club.ID, entities.PositionMidfielder, rating))
	}
	return Side{Club: club, Lineup: lineup}
}

func testRef(home, away Side) calendar.Match {
	return calendar.Match{
		FixtureID:     uuid.New(),
		CompetitionID: uuid.New(),
		Season:        "2024/25",
		Round:         1,
		HomeClubID:    home.Club.ID,
		AwayClubID:    away.Club.ID,
	}
}

func TestSideRatingsUniformLineup(t *testing.T) {
	side := testSide("United", 60, true)
	got, err := SideRatings(side.Lineup)
	if err != nil {
		t.Fatalf("side ratings: %v", err)
	}
	if math.Abs(got.Attack-60) > 1e-9 {
		t.Fatalf("expected attack 60, got %.4f", got.Attack)
	}
	if math.Abs(got.Defense-60) > 1e-9 {
		t.Fatalf("expected defense 60, got %.4f", got.Defense)
	}
}

func TestSideRatingsKeeperBlendsDefense(t *testing.T) {
	club := uuid.New()
	lineup := []entities.Player{testPlayer(club, entities.PositionDefender, 50)}
	keeper := testPlayer(club, entities.PositionGoalkeeper, 90)
	withKeeper := append([]entities.Player{keeper}, lineup...)

	outfieldOnly, err := SideRatings(lineup)
	if err != nil {
		t.Fatalf("side ratings: %v", err)
	}
	blended, err := SideRatings(withKeeper)
	if err != nil {
		t.Fatalf("side ratings: %v", err)
	}
	if blended.Defense <= outfieldOnly.Defense {
		t.Fatalf("expected strong keeper to raise defense: outfield %.2f, blended %.2f",
			outfieldOnly.Defense, blended.Defense)
	}
	if blended.Attack != outfieldOnly.Attack {
		t.Fatalf("keeper must not affect attack: %.2f vs %.2f", blended.Attack, outfieldOnly.Attack)
	}
}

func TestSideRatingsNoKeeperFallsBackToOutfield(t *testing.T) {
	side := testSide("Rovers", 55, false)
	got, err := SideRatings(side.Lineup)
	if err != nil {
		t.Fatalf("side ratings: %v", err)
	}
	if math.Abs(got.Defense-55) > 1e-9 {
		t.Fatalf("expected outfield-only defense 55, got %.4f", got.Defense)
	}
}

func TestSideRatingsEmptyLineup(t *testing.T) {
	if _, err := SideRatings(nil); err == nil {
		t.Fatalf("expected error for empty lineup")
	}
}

func TestGoalProbabilitiesNormalized(t *testing.T) {
	homeStrength, awayStrength := ExpectedStrengths(Ratings{Attack: 60, Defense: 60}, Ratings{Attack: 55, Defense: 58})
	for _, strength := range []float64{homeStrength, awayStrength} {
		probs := goalProbabilities(strength)
		if len(probs) != MaxGoals+1 {
			t.Fatalf("expected %d goal counts, got %d", MaxGoals+1, len(probs))
		}
		sum := 0.0
		for _, p := range probs {
			if p < 0 || p > 1 {
				t.Fatalf("probability out of range: %.6f", p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("expected normalized probabilities, sum=%.6f", sum)
		}
	}
}

func TestSimulateScorelineBounds(t *testing.T) {
	home := testSide("United", 70, true)
	away := testSide("City", 65, true)
	ref := testRef(home, away)
	rng := rand.New(rand.NewSource(1))
	date := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 500; i++ {
		outcome, err := Simulate(rng, date, ref, home, away)
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}
		log := outcome.Log
		if log.HomeGoals < 0 || log.HomeGoals > MaxGoals || log.AwayGoals < 0 || log.AwayGoals > MaxGoals {
			t.Fatalf("scoreline out of bounds: %d-%d", log.HomeGoals, log.AwayGoals)
		}
	}
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	home := testSide("United", 70, true)
	away := testSide("City", 65, true)
	ref := testRef(home, away)
	date := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	first, err := Simulate(rand.New(rand.NewSource(42)), date, ref, home, away)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	second, err := Simulate(rand.New(rand.NewSource(42)), date, ref, home, away)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if first.Log.HomeGoals != second.Log.HomeGoals || first.Log.AwayGoals != second.Log.AwayGoals {
		t.Fatalf("same seed produced %d-%d and %d-%d",
			first.Log.HomeGoals, first.Log.AwayGoals, second.Log.HomeGoals, second.Log.AwayGoals)
	}
}

func TestSimulateDeltasConsistent(t *testing.T) {
	home := testSide("United", 70, true)
	away := testSide("City", 65, true)
	ref := testRef(home, away)
	rng := rand.New(rand.NewSource(7))
	date := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	outcome, err := Simulate(rng, date, ref, home, away)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	homeDelta := outcome.ClubDeltas[home.Club.ID]
	awayDelta := outcome.ClubDeltas[away.Club.ID]
	if homeDelta.MatchesPlayed != 1 || awayDelta.MatchesPlayed != 1 {
		t.Fatalf("expected one played match per side: %+v / %+v", homeDelta, awayDelta)
	}
	if homeDelta.GoalsFor != awayDelta.GoalsAgainst || awayDelta.GoalsFor != homeDelta.GoalsAgainst {
		t.Fatalf("goal deltas disagree: %+v / %+v", homeDelta, awayDelta)
	}
	if homeDelta.Wins+homeDelta.Draws+homeDelta.Losses != 1 {
		t.Fatalf("expected exactly one result flag for home: %+v", homeDelta)
	}
	wdl := outcome.HomeResult.Wins + outcome.HomeResult.Draws + outcome.HomeResult.Losses
	if wdl != 1 {
		t.Fatalf("expected one tournament result for home, got %+v", outcome.HomeResult)
	}
	for _, p := range home.Lineup {
		if outcome.PlayerDelta[p.ID].Appearances != 1 {
			t.Fatalf("lineup player missing appearance delta")
		}
	}
}

func TestSimulateByePath(t *testing.T) {
	lone := testSide("United", 70, true)
	ref := calendar.Match{FixtureID: uuid.New(), CompetitionID: uuid.New(), HomeClubID: lone.Club.ID, Bye: true}
	date := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	outcome := SimulateBye(date, ref, lone)
	if !outcome.Bye || !outcome.Log.Bye {
		t.Fatalf("expected bye outcome")
	}
	if outcome.Log.HomeGoals != 0 || outcome.Log.AwayGoals != 0 {
		t.Fatalf("bye must have zero score, got %d-%d", outcome.Log.HomeGoals, outcome.Log.AwayGoals)
	}
	delta := outcome.ClubDeltas[lone.Club.ID]
	if delta.Byes != 1 || delta.MatchesPlayed != 0 {
		t.Fatalf("bye delta must record a bye and no played match: %+v", delta)
	}
}

func TestStrongerSideScoresMoreOnAverage(t *testing.T) {
	strong := testSide("United", 90, true)
	weak := testSide("Rovers", 30, true)
	ref := testRef(strong, weak)
	rng := rand.New(rand.NewSource(11))
	date := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	var strongGoals, weakGoals int
	for i := 0; i < 2000; i++ {
		outcome, err := Simulate(rng, date, ref, strong, weak)
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}
		strongGoals += outcome.Log.HomeGoals
		weakGoals += outcome.Log.AwayGoals
	}
	if strongGoals <= weakGoals {
		t.Fatalf("expected the stronger side to outscore over 2000 matches: %d vs %d", strongGoals, weakGoals)
	}
}
