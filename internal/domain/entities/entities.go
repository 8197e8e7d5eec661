package entities

import (
	"time"

	"github.com/google/uuid"
)

// Positions a player can hold in a lineup. Only the goalkeeper is treated
// specially by the match model; the outfield positions are display data.
const (
	PositionGoalkeeper = "GK"
	PositionDefender   = "DF"
	PositionMidfielder = "MF"
	PositionForward    = "FW"
)

// Skills is a player's rating sheet. Outfield categories feed the attack and
// defense aggregates; the GK categories only matter for goalkeepers.
type Skills struct {
	BallControl float64 `json:"ballControl"`
	Passing     float64 `json:"passing"`
	Shooting    float64 `json:"shooting"`
	Tackling    float64 `json:"tackling"`
	Mental      float64 `json:"mental"`
	Physical    float64 `json:"physical"`

	GKPositioning float64 `json:"gkPositioning"`
	GKReflexes    float64 `json:"gkReflexes"`
	GKHandling    float64 `json:"gkHandling"`
}

type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ClubID   uuid.UUID `json:"clubId"`
	Position string    `json:"position"`
	Starter  bool      `json:"starter"`
	Skills   Skills    `json:"skills"`
}

func (p Player) IsGoalkeeper() bool {
	return p.Position == PositionGoalkeeper
}

type Club struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	CountryID     uuid.UUID   `json:"countryId"`
	CompetitionID uuid.UUID   `json:"competitionId"`
	PlayerIDs     []uuid.UUID `json:"playerIds"`
}

type Competition struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	CountryID uuid.UUID   `json:"countryId"`
	ClubIDs   []uuid.UUID `json:"clubIds"`
}

type Country struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// MatchLog is the finalized record of one played (or bye) fixture. Never
// mutated after creation.
type MatchLog struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Date          time.Time `json:"date"`
	CompetitionID uuid.UUID `json:"competitionId"`
	HomeClubID    uuid.UUID `json:"homeClubId"`
	AwayClubID    uuid.UUID `json:"awayClubId"`
	HomeGoals     int       `json:"homeGoals"`
	AwayGoals     int       `json:"awayGoals"`
	Bye           bool      `json:"bye"`
}

// Lineup resolves a club's starting eleven from the player map. Clubs whose
// roster carries no starter flags field the whole roster.
func Lineup(players map[uuid.UUID]Player, club Club) []Player {
	starters := make([]Player, 0, 11)
	roster := make([]Player, 0, len(club.PlayerIDs))
	for _, id := range club.PlayerIDs {
		p, ok := players[id]
		if !ok {
			continue
		}
		roster = append(roster, p)
		if p.Starter {
			starters = append(starters, p)
		}
	}
	if len(starters) > 0 {
		return starters
	}
	return roster
}
