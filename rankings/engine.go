package rankings

import (
	"sort"

	"github.com/Dosada05/speech-ballots/models"
)

// Entry - один отправленный бюллетень с идентичностью участника и вида выступления.
type Entry struct {
	EventTypeID    int
	EventTypeName  string
	CompetitorID   string
	CompetitorName string
	Scores         models.Scores
}

// BallotTotal суммирует пять оценок бюллетеня. Отсутствующая оценка считается нулём.
func BallotTotal(s models.Scores) int {
	total := 0
	for _, v := range s.All() {
		if v != nil {
			total += *v
		}
	}
	return total
}

type accumulator struct {
	id    string
	name  string
	total int
	count int
}

type eventGroup struct {
	id          int
	name        string
	competitors map[string]*accumulator
}

// Compute строит по одной таблице результатов на каждый вид выступления.
// Порядок входных записей на результат не влияет. Пустой вход даёт пустой список.
func Compute(entries []Entry) []models.EventLeaderboard {
	groups := make(map[int]*eventGroup)
	for _, e := range entries {
		g, ok := groups[e.EventTypeID]
		if !ok {
			g = &eventGroup{id: e.EventTypeID, name: e.EventTypeName, competitors: make(map[string]*accumulator)}
			groups[e.EventTypeID] = g
		}
		acc, ok := g.competitors[e.CompetitorID]
		if !ok {
			acc = &accumulator{id: e.CompetitorID, name: e.CompetitorName}
			g.competitors[e.CompetitorID] = acc
		}
		acc.total += BallotTotal(e.Scores)
		acc.count++
	}

	boards := make([]models.EventLeaderboard, 0, len(groups))
	for _, g := range groups {
		boards = append(boards, models.EventLeaderboard{
			EventTypeID:   g.id,
			EventTypeName: g.name,
			Competitors:   rank(g.competitors),
		})
	}

	sort.Slice(boards, func(i, j int) bool {
		if boards[i].EventTypeName != boards[j].EventTypeName {
			return boards[i].EventTypeName < boards[j].EventTypeName
		}
		return boards[i].EventTypeID < boards[j].EventTypeID
	})
	return boards
}

func rank(competitors map[string]*accumulator) []models.Standing {
	standings := make([]models.Standing, 0, len(competitors))
	for _, acc := range competitors {
		avg := 0.0
		if acc.count > 0 {
			avg = float64(acc.total) / float64(acc.count)
		}
		standings = append(standings, models.Standing{
			CompetitorID:   acc.id,
			CompetitorName: acc.name,
			TotalScore:     acc.total,
			BallotCount:    acc.count,
			AverageScore:   avg,
		})
	}

	// Равные суммы упорядочиваются по имени и id только для стабильного вывода, на места это не влияет.
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.CompetitorName != b.CompetitorName {
			return a.CompetitorName < b.CompetitorName
		}
		return a.CompetitorID < b.CompetitorID
	})

	// Соревновательная нумерация: 1, 1, 3.
	for i := range standings {
		if i > 0 && standings[i].TotalScore == standings[i-1].TotalScore {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}
