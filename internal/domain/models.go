package domain

import (
	"fmt"
	"time"
)

// Day identifies a competition phase. Grouping only exists on day2 and day3.
type Day string

const (
	Day1 Day = "day1"
	Day2 Day = "day2"
	Day3 Day = "day3"
)

// Days lists all valid days in order.
var Days = []Day{Day1, Day2, Day3}

// ParseDay validates a raw day string.
func ParseDay(raw string) (Day, error) {
	switch Day(raw) {
	case Day1, Day2, Day3:
		return Day(raw), nil
	}
	return "", fmt.Errorf("%w: unknown day %q", ErrInvalidArgument, raw)
}

// Grouped reports whether the day has a grouping concept.
func (d Day) Grouped() bool {
	return d == Day2 || d == Day3
}

// Game identifies one of the mini-game kinds.
type Game string

const (
	GameQuiz       Game = "quiz"
	GameCrossword  Game = "crossword"
	GameWordSearch Game = "wordSearch"
)

// Games lists all valid game kinds.
var Games = []Game{GameQuiz, GameCrossword, GameWordSearch}

// ParseGame validates a raw game string.
func ParseGame(raw string) (Game, error) {
	switch Game(raw) {
	case GameQuiz, GameCrossword, GameWordSearch:
		return Game(raw), nil
	}
	return "", fmt.Errorf("%w: unknown game %q", ErrInvalidArgument, raw)
}

// ScoreMatrix maps game kind to per-day scores. Missing cells count as zero.
type ScoreMatrix map[Game]map[Day]int

// Total sums the matrix across all games and days.
func (m ScoreMatrix) Total() int {
	total := 0
	for _, days := range m {
		for _, score := range days {
			total += score
		}
	}
	return total
}

// DayTotal sums the matrix across all games for a single day.
func (m ScoreMatrix) DayTotal(day Day) int {
	total := 0
	for _, days := range m {
		total += days[day]
	}
	return total
}

// Set writes one cell, allocating nested maps as needed.
func (m ScoreMatrix) Set(game Game, day Day, score int) {
	days, ok := m[game]
	if !ok {
		days = make(map[Day]int)
		m[game] = days
	}
	days[day] = score
}

// Clone returns a deep copy so stored matrices cannot be mutated by callers.
func (m ScoreMatrix) Clone() ScoreMatrix {
	out := make(ScoreMatrix, len(m))
	for game, days := range m {
		copied := make(map[Day]int, len(days))
		for day, score := range days {
			copied[day] = score
		}
		out[game] = copied
	}
	return out
}

// Participant is one registered player. ExternalID is client-assigned and
// immutable; scores are written only through the scoreboard service.
type Participant struct {
	ExternalID  string      `json:"externalId"`
	DisplayName string      `json:"displayName"`
	Scores      ScoreMatrix `json:"score"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// DefaultGroup is the content group used when an upload names none.
const DefaultGroup = "default"

// Row is one parsed record of an uploaded tabular payload. The shape is
// game-specific and deliberately not validated beyond row structure.
type Row map[string]string

// ContentVersion is one immutable upload of game content for a
// (day, game, group) key. Versions per key start at 1 and never repeat.
type ContentVersion struct {
	Day        Day       `json:"day"`
	Game       Game      `json:"game"`
	Group      string    `json:"group"`
	Version    int       `json:"version"`
	Payload    []Row     `json:"payload"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Group is a day-scoped team. TotalScore is stored, not derived on read.
type Group struct {
	Name       string   `json:"groupName"`
	Members    []string `json:"members"`
	TotalScore int      `json:"totalScore"`
}

// DayGroups is the single groups document for one day. Order is significant
// and preserved as stored.
type DayGroups struct {
	Day    Day     `json:"day"`
	Groups []Group `json:"groups"`
}

// Settings is the global singleton configuration record.
type Settings struct {
	CurrentDay  Day             `json:"currentDay"`
	GroupColors map[Day][]string `json:"groupColors"`
}

// DefaultSettings is what lazy first access creates.
func DefaultSettings() Settings {
	return Settings{
		CurrentDay:  Day1,
		GroupColors: map[Day][]string{},
	}
}

// LeaderboardScope selects overall or single-day ranking.
type LeaderboardScope string

const (
	ScopeOverall LeaderboardScope = "overall"
	ScopeDay     LeaderboardScope = "day"
)

// ParseScope validates a raw scope string; empty defaults to overall.
func ParseScope(raw string) (LeaderboardScope, error) {
	switch LeaderboardScope(raw) {
	case "":
		return ScopeOverall, nil
	case ScopeOverall, ScopeDay:
		return LeaderboardScope(raw), nil
	}
	return "", fmt.Errorf("%w: unknown leaderboard scope %q", ErrInvalidArgument, raw)
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
	Total       int    `json:"total"`
}

// Leaderboard is a ranked snapshot. Day is empty for overall scope.
type Leaderboard struct {
	Scope     LeaderboardScope   `json:"scope"`
	Day       Day                `json:"day,omitempty"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
