package match

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/entities"
	"github.com/vHugoObject/the-manager/internal/domain/stats"
	"github.com/vHugoObject/the-manager/internal/domain/tournament"
)

// Goal-model calibration. The expected-strength link is a double exponential
// over the 0.01-scaled ratings; per-goal-count probabilities come from a
// Weibull CDF and the two sides are coupled with a Frank copula.
const (
	uCoefficient = -1.035
	homeEffect   = 0.383
	shapeK       = 1.864
	theta        = 0.562

	// MaxGoals bounds each side's scoreline; every sampled goal count lies
	// in 0..MaxGoals.
	MaxGoals = 5
)

var ErrEmptyLineup = errors.New("club has no players in its lineup")

// Side is one club's view of a fixture: the club record plus its starting
// lineup.
type Side struct {
	Club   entities.Club
	Lineup []entities.Player
}

// Outcome bundles everything one simulated fixture emits: the match log, the
// tournament result for each side, and the statistics deltas to apply.
type Outcome struct {
	Log         entities.MatchLog
	HomeResult  tournament.Result
	AwayResult  tournament.Result
	ClubDeltas  map[uuid.UUID]stats.ClubSeason
	PlayerDelta map[uuid.UUID]stats.PlayerSeason
	Competition stats.CompetitionSeason
	Bye         bool
}

// Ratings are a side's aggregated attack and defense strengths on the skill
// scale (0-100).
type Ratings struct {
	Attack  float64
	Defense float64
}

// SideRatings averages each outfield player's attack categories (ball
// control, passing, shooting, mental, physical) and defense categories
// (tackling, mental, physical) across the lineup. A goalkeeper contributes a
// goalkeeping rating blended into the defensive aggregate; a lineup without
// one falls back to the outfield-only defense.
func SideRatings(lineup []entities.Player) (Ratings, error) {
	if len(lineup) == 0 {
		return Ratings{}, ErrEmptyLineup
	}

	var attackSum, defenseSum float64
	outfield := 0
	gkRating := 0.0
	hasKeeper := false

	for _, p := range lineup {
		if p.IsGoalkeeper() {
			gkRating = mean(p.Skills.GKPositioning, p.Skills.GKReflexes, p.Skills.GKHandling)
			hasKeeper = true
			continue
		}
		attackSum += mean(p.Skills.BallControl, p.Skills.Passing, p.Skills.Shooting, p.Skills.Mental, p.Skills.Physical)
		defenseSum += mean(p.Skills.Tackling, p.Skills.Mental, p.Skills.Physical)
		outfield++
	}
	if outfield == 0 {
		// A lineup of only goalkeepers still needs a defined rating.
		return Ratings{Attack: gkRating, Defense: gkRating}, nil
	}

	r := Ratings{
		Attack:  attackSum / float64(outfield),
		Defense: defenseSum / float64(outfield),
	}
	if hasKeeper {
		r.Defense = (r.Defense + gkRating) / 2
	}
	return r, nil
}

// ExpectedStrengths computes the two sides' expected goal-rate parameters.
// Only the home side receives the home-advantage term.
func ExpectedStrengths(home, away Ratings) (float64, float64) {
	homeStrength := math.Exp(-math.Exp(uCoefficient + homeEffect + 0.01*home.Attack + 0.01*away.Defense))
	awayStrength := math.Exp(-math.Exp(uCoefficient + 0.01*away.Attack + 0.01*home.Defense))
	return homeStrength, awayStrength
}

// goalProbabilities returns the Weibull-derived probability of each goal
// count 0..MaxGoals for one side, normalized to sum to one.
func goalProbabilities(strength float64) []float64 {
	probs := make([]float64, MaxGoals+1)
	total := 0.0
	for g := 0; g <= MaxGoals; g++ {
		probs[g] = 1 - math.Exp(-math.Pow(float64(g+1)*strength, shapeK))
		total += probs[g]
	}
	for g := range probs {
		probs[g] /= total
	}
	return probs
}

// frankCopula couples the two sides' marginal probabilities into a joint
// scoreline probability with dependence parameter theta.
func frankCopula(homeP, awayP float64) float64 {
	num := (math.Exp(-theta*homeP) - 1) * (math.Exp(-theta*awayP) - 1)
	den := math.Exp(-theta) - 1
	return -(1 / theta) * math.Log(1+num/den)
}

type scoreline struct {
	home, away int
	prob       float64
}

// scoreGrid builds the full 6x6 joint probability surface, sorted by
// probability descending.
func scoreGrid(homeStrength, awayStrength float64) []scoreline {
	homeProbs := goalProbabilities(homeStrength)
	awayProbs := goalProbabilities(awayStrength)

	grid := make([]scoreline, 0, (MaxGoals+1)*(MaxGoals+1))
	for h := 0; h <= MaxGoals; h++ {
		for a := 0; a <= MaxGoals; a++ {
			grid = append(grid, scoreline{home: h, away: a, prob: frankCopula(homeProbs[h], awayProbs[a])})
		}
	}
	sort.Slice(grid, func(i, j int) bool {
		if grid[i].prob != grid[j].prob {
			return grid[i].prob > grid[j].prob
		}
		if grid[i].home != grid[j].home {
			return grid[i].home < grid[j].home
		}
		return grid[i].away < grid[j].away
	})
	return grid
}

// drawScore performs the cumulative-weight draw over the sorted grid. This is
// the single randomized step in the whole simulation pipeline.
func drawScore(rng *rand.Rand, grid []scoreline) (int, int) {
	total := 0.0
	for _, s := range grid {
		total += s.prob
	}
	target := rng.Float64() * total
	cumulative := 0.0
	for _, s := range grid {
		cumulative += s.prob
		if target <= cumulative {
			return s.home, s.away
		}
	}
	last := grid[len(grid)-1]
	return last.home, last.away
}

// Simulate plays one fixture and emits its outcome. The caller supplies the
// random source, so a fixed seed reproduces the same scoreline.
func Simulate(rng *rand.Rand, date time.Time, ref calendar.Match, home, away Side) (Outcome, error) {
	homeRatings, err := SideRatings(home.Lineup)
	if err != nil {
		return Outcome{}, fmt.Errorf("home club %s: %w", home.Club.ID, err)
	}
	awayRatings, err := SideRatings(away.Lineup)
	if err != nil {
		return Outcome{}, fmt.Errorf("away club %s: %w", away.Club.ID, err)
	}

	homeStrength, awayStrength := ExpectedStrengths(homeRatings, awayRatings)
	homeGoals, awayGoals := drawScore(rng, scoreGrid(homeStrength, awayStrength))

	homeDelta := stats.ClubSeason{MatchesPlayed: 1, GoalsFor: homeGoals, GoalsAgainst: awayGoals}
	awayDelta := stats.ClubSeason{MatchesPlayed: 1, GoalsFor: awayGoals, GoalsAgainst: homeGoals}
	var homeResult, awayResult tournament.Result
	switch {
	case homeGoals > awayGoals:
		homeDelta.Wins, homeDelta.Points = 1, tournament.WinPoints
		awayDelta.Losses = 1
		homeResult.Wins, awayResult.Losses = 1, 1
	case homeGoals < awayGoals:
		awayDelta.Wins, awayDelta.Points = 1, tournament.WinPoints
		homeDelta.Losses = 1
		awayResult.Wins, homeResult.Losses = 1, 1
	default:
		homeDelta.Draws, homeDelta.Points = 1, tournament.DrawPoints
		awayDelta.Draws, awayDelta.Points = 1, tournament.DrawPoints
		homeResult.Draws, awayResult.Draws = 1, 1
	}

	playerDeltas := make(map[uuid.UUID]stats.PlayerSeason, len(home.Lineup)+len(away.Lineup))
	for _, p := range home.Lineup {
		playerDeltas[p.ID] = stats.PlayerSeason{Appearances: 1, Wins: homeResult.Wins, Draws: homeResult.Draws, Losses: homeResult.Losses}
	}
	for _, p := range away.Lineup {
		playerDeltas[p.ID] = stats.PlayerSeason{Appearances: 1, Wins: awayResult.Wins, Draws: awayResult.Draws, Losses: awayResult.Losses}
	}

	return Outcome{
		Log: entities.MatchLog{
			ID:            uuid.New(),
			Name:          fmt.Sprintf("%s %d - %d %s", home.Club.Name, homeGoals, awayGoals, away.Club.Name),
			Date:          date,
			CompetitionID: ref.CompetitionID,
			HomeClubID:    home.Club.ID,
			AwayClubID:    away.Club.ID,
			HomeGoals:     homeGoals,
			AwayGoals:     awayGoals,
		},
		HomeResult: homeResult,
		AwayResult: awayResult,
		ClubDeltas: map[uuid.UUID]stats.ClubSeason{
			home.Club.ID: homeDelta,
			away.Club.ID: awayDelta,
		},
		PlayerDelta: playerDeltas,
		Competition: stats.CompetitionSeason{MatchesPlayed: 1, GoalsScored: homeGoals + awayGoals},
	}, nil
}

// SimulateBye handles a fixture with a lone participant: no match is played,
// the scoreline is zero, and the club's delta records a bye instead of a
// played match.
func SimulateBye(date time.Time, ref calendar.Match, lone Side) Outcome {
	return Outcome{
		Log: entities.MatchLog{
			ID:            uuid.New(),
			Name:          fmt.Sprintf("%s (bye)", lone.Club.Name),
			Date:          date,
			CompetitionID: ref.CompetitionID,
			HomeClubID:    lone.Club.ID,
			Bye:           true,
		},
		ClubDeltas: map[uuid.UUID]stats.ClubSeason{
			lone.Club.ID: {Byes: 1, Points: tournament.ByePoints},
		},
		PlayerDelta: map[uuid.UUID]stats.PlayerSeason{},
		Competition: stats.CompetitionSeason{Byes: 1},
		Bye:         true,
	}
}

func mean(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
