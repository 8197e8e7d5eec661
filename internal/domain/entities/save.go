package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/schedule"
	"github.com/vHugoObject/the-manager/internal/domain/stats"
)

// Save is the aggregate root of one game: the entity maps, their cumulative
// statistics, the season calendar and the scheduling state, plus the clock.
// It is created once at game start and then mutated only by the day
// advancement, which persists it as one logical unit.
type Save struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	CurrentDate   time.Time `json:"currentDate"`
	CurrentSeason string    `json:"currentSeason"`

	Countries    map[uuid.UUID]Country     `json:"countries"`
	Competitions map[uuid.UUID]Competition `json:"competitions"`
	Clubs        map[uuid.UUID]Club        `json:"clubs"`
	Players      map[uuid.UUID]Player      `json:"players"`

	Statistics stats.Book        `json:"statistics"`
	Calendar   calendar.Calendar `json:"calendar"`
	Schedule   schedule.State    `json:"schedule"`
	MatchLogs  []MatchLog        `json:"matchLogs"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
