package stats

import "github.com/google/uuid"

// Season records are closed, typed schemas, one per entity kind. Updates are
// strictly additive: a delta is another record of the same type and Add sums
// it field by field, so fields absent from a delta (zero) leave the stored
// value untouched and totals never decrease mid-season.

type ClubSeason struct {
	MatchesPlayed int `json:"matchesPlayed"`
	Wins          int `json:"wins"`
	Draws         int `json:"draws"`
	Losses        int `json:"losses"`
	Byes          int `json:"byes"`
	GoalsFor      int `json:"goalsFor"`
	GoalsAgainst  int `json:"goalsAgainst"`
	Points        int `json:"points"`
}

func (s ClubSeason) Add(d ClubSeason) ClubSeason {
	s.MatchesPlayed += d.MatchesPlayed
	s.Wins += d.Wins
	s.Draws += d.Draws
	s.Losses += d.Losses
	s.Byes += d.Byes
	s.GoalsFor += d.GoalsFor
	s.GoalsAgainst += d.GoalsAgainst
	s.Points += d.Points
	return s
}

type PlayerSeason struct {
	Appearances int `json:"appearances"`
	Wins        int `json:"wins"`
	Draws       int `json:"draws"`
	Losses      int `json:"losses"`
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
}

func (s PlayerSeason) Add(d PlayerSeason) PlayerSeason {
	s.Appearances += d.Appearances
	s.Wins += d.Wins
	s.Draws += d.Draws
	s.Losses += d.Losses
	s.Goals += d.Goals
	s.Assists += d.Assists
	return s
}

type CompetitionSeason struct {
	MatchesPlayed int `json:"matchesPlayed"`
	GoalsScored   int `json:"goalsScored"`
	Byes          int `json:"byes"`
}

func (s CompetitionSeason) Add(d CompetitionSeason) CompetitionSeason {
	s.MatchesPlayed += d.MatchesPlayed
	s.GoalsScored += d.GoalsScored
	s.Byes += d.Byes
	return s
}

// Book holds every entity's cumulative season records: entity id -> season
// label -> record. Buckets are created zeroed on first touch and grow
// monotonically from there.
type Book struct {
	Clubs        map[uuid.UUID]map[string]ClubSeason        `json:"clubs"`
	Players      map[uuid.UUID]map[string]PlayerSeason      `json:"players"`
	Competitions map[uuid.UUID]map[string]CompetitionSeason `json:"competitions"`
}

func NewBook() Book {
	return Book{
		Clubs:        make(map[uuid.UUID]map[string]ClubSeason),
		Players:      make(map[uuid.UUID]map[string]PlayerSeason),
		Competitions: make(map[uuid.UUID]map[string]CompetitionSeason),
	}
}

func (b Book) AddClub(season string, id uuid.UUID, d ClubSeason) {
	if b.Clubs[id] == nil {
		b.Clubs[id] = make(map[string]ClubSeason)
	}
	b.Clubs[id][season] = b.Clubs[id][season].Add(d)
}

func (b Book) AddPlayer(season string, id uuid.UUID, d PlayerSeason) {
	if b.Players[id] == nil {
		b.Players[id] = make(map[string]PlayerSeason)
	}
	b.Players[id][season] = b.Players[id][season].Add(d)
}

func (b Book) AddCompetition(season string, id uuid.UUID, d CompetitionSeason) {
	if b.Competitions[id] == nil {
		b.Competitions[id] = make(map[string]CompetitionSeason)
	}
	b.Competitions[id][season] = b.Competitions[id][season].Add(d)
}

// AddClubBatch applies a set of club deltas as one logical step.
func (b Book) AddClubBatch(season string, deltas map[uuid.UUID]ClubSeason) {
	for id, d := range deltas {
		b.AddClub(season, id, d)
	}
}

// AddPlayerBatch applies a set of player deltas as one logical step.
func (b Book) AddPlayerBatch(season string, deltas map[uuid.UUID]PlayerSeason) {
	for id, d := range deltas {
		b.AddPlayer(season, id, d)
	}
}

func (b Book) Club(season string, id uuid.UUID) ClubSeason {
	return b.Clubs[id][season]
}

func (b Book) Player(season string, id uuid.UUID) PlayerSeason {
	return b.Players[id][season]
}

func (b Book) Competition(season string, id uuid.UUID) CompetitionSeason {
	return b.Competitions[id][season]
}
