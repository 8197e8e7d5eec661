package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vHugoObject/the-manager/internal/domain/calendar"
	"github.com/vHugoObject/the-manager/internal/domain/entities"
	"github.com/vHugoObject/the-manager/internal/domain/schedule"
	"github.com/vHugoObject/the-manager/internal/domain/stats"
	"github.com/vHugoObject/the-manager/internal/domain/tournament"
	"github.com/vHugoObject/the-manager/internal/events"
)

// ErrSaveNotFound is returned by stores when no save exists for an id.
var ErrSaveNotFound = errors.New("save not found")

// Summary is the lightweight listing view of a save.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	CurrentDate   time.Time `json:"currentDate"`
	CurrentSeason string    `json:"currentSeason"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Store is the persistence boundary the engine drives. Reads and writes move
// whole saves; the store guarantees a put either fully lands or fails.
type Store interface {
	CreateSave(ctx context.Context, save entities.Save) error
	GetSave(ctx context.Context, id uuid.UUID) (entities.Save, error)
	PutSave(ctx context.Context, save entities.Save) error
	ListSaves(ctx context.Context) ([]Summary, error)
	DeleteSave(ctx context.Context, id uuid.UUID) error
}

// Engine owns the game loop: season setup and the single-day advancement
// primitive. Longer advancements are repeated single days.
type Engine struct {
	store Store
	bus   *events.Bus
	seed  int64

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func New(store Store, bus *events.Bus, seed int64) *Engine {
	return &Engine{
		store: store,
		bus:   bus,
		seed:  seed,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// saveLock serializes advancement per save id: two concurrent advances of the
// same save must not interleave.
func (e *Engine) saveLock(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

// NewGame is the save-creation payload. Entity identity and attribute
// generation happen outside this engine; the caller supplies finished
// records.
type NewGame struct {
	Name         string                 `json:"name"`
	Season       string                 `json:"season"`
	SeasonStart  time.Time              `json:"seasonStart"`
	MatchDay     string                 `json:"matchDay,omitempty"`
	Countries    []entities.Country     `json:"countries"`
	Competitions []entities.Competition `json:"competitions"`
	Clubs        []entities.Club        `json:"clubs"`
	Players      []entities.Player      `json:"players"`
}

// CreateSave runs the one-shot season setup: build the calendar, generate
// every competition's double round robin, allocate rounds onto match days,
// provision zeroed season statistics, and persist the new save.
func (e *Engine) CreateSave(ctx context.Context, game NewGame) (entities.Save, error) {
	matchDay, err := parseMatchDay(game.MatchDay)
	if err != nil {
		return entities.Save{}, err
	}

	save := entities.Save{
		ID:            uuid.New(),
		Name:          game.Name,
		CurrentSeason: game.Season,
		Countries:     make(map[uuid.UUID]entities.Country, len(game.Countries)),
		Competitions:  make(map[uuid.UUID]entities.Competition, len(game.Competitions)),
		Clubs:         make(map[uuid.UUID]entities.Club, len(game.Clubs)),
		Players:       make(map[uuid.UUID]entities.Player, len(game.Players)),
		Statistics:    stats.NewBook(),
	}
	for _, c := range game.Countries {
		save.Countries[c.ID] = c
	}
	for _, c := range game.Competitions {
		save.Competitions[c.ID] = c
	}
	for _, c := range game.Clubs {
		if _, ok := save.Competitions[c.CompetitionID]; !ok {
			return entities.Save{}, fmt.Errorf("%w: club %s references competition %s", ErrUnknownEntity, c.ID, c.CompetitionID)
		}
		save.Clubs[c.ID] = c
	}
	for _, p := range game.Players {
		if _, ok := save.Clubs[p.ClubID]; !ok {
			return entities.Save{}, fmt.Errorf("%w: player %s references club %s", ErrUnknownEntity, p.ID, p.ClubID)
		}
		save.Players[p.ID] = p
	}

	participants := make(map[uuid.UUID][]uuid.UUID, len(game.Competitions))
	for _, competition := range game.Competitions {
		for _, clubID := range competition.ClubIDs {
			if _, ok := save.Clubs[clubID]; !ok {
				return entities.Save{}, fmt.Errorf("%w: competition %s references club %s", ErrUnknownEntity, competition.ID, clubID)
			}
		}
		participants[competition.ID] = competition.ClubIDs
	}

	save.Calendar = calendar.Build(game.SeasonStart)
	save.Schedule, err = schedule.NewSeason(game.Season, participants)
	if err != nil {
		return entities.Save{}, err
	}
	if err := schedule.Allocate(save.Calendar, save.Schedule, calendar.Weekday(matchDay)); err != nil {
		return entities.Save{}, err
	}

	// Season buckets exist from day one, zeroed, for every entity.
	for id := range save.Clubs {
		save.Statistics.AddClub(game.Season, id, stats.ClubSeason{})
	}
	for id := range save.Players {
		save.Statistics.AddPlayer(game.Season, id, stats.PlayerSeason{})
	}
	for id := range save.Competitions {
		save.Statistics.AddCompetition(game.Season, id, stats.CompetitionSeason{})
	}

	now := time.Now().UTC()
	save.CurrentDate = calendar.PolicyFor(game.SeasonStart).FirstDay
	save.CreatedAt = now
	save.UpdatedAt = now

	if err := e.store.CreateSave(ctx, save); err != nil {
		return entities.Save{}, err
	}
	if err := e.bus.Publish(ctx, events.Event{Name: events.SaveCreated, Payload: save.ID}); err != nil {
		return entities.Save{}, err
	}
	return save, nil
}

// AdvanceOneDay is the single mutating entry point of a running game: load
// the save, advance it one day, persist it as one logical unit.
func (e *Engine) AdvanceOneDay(ctx context.Context, saveID uuid.UUID) (entities.Save, []entities.MatchLog, error) {
	lock := e.saveLock(saveID)
	lock.Lock()
	defer lock.Unlock()

	save, err := e.loadSave(ctx, saveID)
	if err != nil {
		return entities.Save{}, nil, err
	}

	logs, err := AdvanceDay(&save, e.seed)
	if err != nil {
		return entities.Save{}, nil, err
	}

	save.UpdatedAt = time.Now().UTC()
	if err := e.store.PutSave(ctx, save); err != nil {
		return entities.Save{}, nil, err
	}

	for _, log := range logs {
		if err := e.bus.Publish(ctx, events.Event{Name: events.MatchPlayed, Payload: log}); err != nil {
			return entities.Save{}, nil, err
		}
	}
	if err := e.bus.Publish(ctx, events.Event{Name: events.DayAdvanced, Payload: save.CurrentDate}); err != nil {
		return entities.Save{}, nil, err
	}
	return save, logs, nil
}

// AdvanceDays advances a save day by day. There is no separate multi-day
// logic; week or month advancement is this loop.
func (e *Engine) AdvanceDays(ctx context.Context, saveID uuid.UUID, days int) (entities.Save, []entities.MatchLog, error) {
	if days < 1 {
		days = 1
	}
	var (
		save entities.Save
		logs []entities.MatchLog
		err  error
	)
	for i := 0; i < days; i++ {
		var dayLogs []entities.MatchLog
		save, dayLogs, err = e.AdvanceOneDay(ctx, saveID)
		if err != nil {
			return entities.Save{}, nil, err
		}
		logs = append(logs, dayLogs...)
	}
	return save, logs, nil
}

// Standings is the read-only standings projection for one competition.
func (e *Engine) Standings(ctx context.Context, saveID, competitionID uuid.UUID) ([]tournament.Row, error) {
	save, err := e.loadSave(ctx, saveID)
	if err != nil {
		return nil, err
	}
	ts, ok := save.Schedule.Tournament(competitionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", schedule.ErrScheduleMismatch, competitionID)
	}
	// Points only; no goal-difference tie-break is tracked at this level.
	return ts.Standings(nil), nil
}

// GetSave loads and validates a save.
func (e *Engine) GetSave(ctx context.Context, saveID uuid.UUID) (entities.Save, error) {
	return e.loadSave(ctx, saveID)
}

// ListSaves lists stored saves.
func (e *Engine) ListSaves(ctx context.Context) ([]Summary, error) {
	return e.store.ListSaves(ctx)
}

// DeleteSave removes a save. Held under the save lock so an in-flight
// advancement finishes before the row disappears.
func (e *Engine) DeleteSave(ctx context.Context, saveID uuid.UUID) error {
	lock := e.saveLock(saveID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.store.DeleteSave(ctx, saveID); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.locks, saveID)
	e.mu.Unlock()
	return nil
}

// loadSave reads a save and validates its scheduling state against the
// entity maps before anything uses it.
func (e *Engine) loadSave(ctx context.Context, saveID uuid.UUID) (entities.Save, error) {
	save, err := e.store.GetSave(ctx, saveID)
	if err != nil {
		return entities.Save{}, err
	}
	err = schedule.Validate(save.Schedule, func(id uuid.UUID) bool {
		_, ok := save.Competitions[id]
		return ok
	})
	if err != nil {
		return entities.Save{}, err
	}
	return save, nil
}

func parseMatchDay(raw string) (time.Weekday, error) {
	if raw == "" {
		return time.Saturday, nil
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if raw == day.String() {
			return day, nil
		}
	}
	return 0, fmt.Errorf("invalid match day %q", raw)
}
