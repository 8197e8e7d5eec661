package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const dayLayout = "2006-01-02"

// Match is a fixture reference attached to a calendar day. It is created once
// by the match-day allocator and read-only afterward.
type Match struct {
	FixtureID     uuid.UUID `json:"fixtureId"`
	CompetitionID uuid.UUID `json:"competitionId"`
	Season        string    `json:"season"`
	Round         int       `json:"round"`
	HomeClubID    uuid.UUID `json:"homeClubId"`
	AwayClubID    uuid.UUID `json:"awayClubId"`
	Bye           bool      `json:"bye"`
}

type Entry struct {
	Matches            map[uuid.UUID]Match `json:"matches"`
	SeasonStartDate    bool                `json:"seasonStartDate"`
	SeasonEndDate      bool                `json:"seasonEndDate"`
	TransferWindowOpen bool                `json:"transferWindowOpen"`
}

// Calendar is one entry per day from the first calendar day through season
// end, inclusive, keyed by Key(date).
type Calendar map[string]*Entry

// Policy holds the season boundary dates, all derived from the season start
// reference date rather than fixed constants.
type Policy struct {
	FirstDay          time.Time
	SeasonStartDay    time.Time
	SummerWindowClose time.Time
	WinterWindowOpen  time.Time
	WinterWindowClose time.Time
	SeasonEnd         time.Time
}

func PolicyFor(seasonStart time.Time) Policy {
	first := truncate(seasonStart)
	nextYear := first.Year() + 1
	return Policy{
		FirstDay:          first,
		SeasonStartDay:    first.AddDate(0, 0, 7),
		SummerWindowClose: first.AddDate(0, 0, 30),
		WinterWindowOpen:  time.Date(nextYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		WinterWindowClose: time.Date(nextYear, time.January, 31, 0, 0, 0, 0, time.UTC),
		SeasonEnd:         time.Date(nextYear, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Build produces the full-season calendar for the given season start
// reference date. Pure function: same input, same calendar.
func Build(seasonStart time.Time) Calendar {
	p := PolicyFor(seasonStart)
	cal := make(Calendar)
	for day := p.FirstDay; !day.After(p.SeasonEnd); day = day.AddDate(0, 0, 1) {
		entry := &Entry{Matches: make(map[uuid.UUID]Match)}
		if withinInclusive(day, p.FirstDay, p.SummerWindowClose) || withinInclusive(day, p.WinterWindowOpen, p.WinterWindowClose) {
			entry.TransferWindowOpen = true
		}
		if day.Equal(p.SeasonStartDay) {
			entry.SeasonStartDate = true
		}
		if day.Equal(p.SeasonEnd) {
			entry.SeasonEndDate = true
		}
		cal[Key(day)] = entry
	}
	return cal
}

func Key(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func ParseKey(key string) (time.Time, error) {
	return time.Parse(dayLayout, key)
}

func (c Calendar) Entry(t time.Time) (*Entry, bool) {
	entry, ok := c[Key(t)]
	return entry, ok
}

// Days returns every calendar day in chronological order. The day key format
// sorts lexicographically in date order.
func (c Calendar) Days() []string {
	days := make([]string, 0, len(c))
	for day := range c {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// MatchDays returns the calendar days satisfying the match-day predicate, in
// chronological order.
func (c Calendar) MatchDays(eligible func(time.Time) bool) []string {
	days := make([]string, 0)
	for _, day := range c.Days() {
		t, err := ParseKey(day)
		if err != nil {
			continue
		}
		if eligible(t) {
			days = append(days, day)
		}
	}
	return days
}

// Weekday returns a match-day predicate selecting one fixed weekday.
func Weekday(day time.Weekday) func(time.Time) bool {
	return func(t time.Time) bool { return t.Weekday() == day }
}

func withinInclusive(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
