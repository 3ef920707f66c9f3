package rankings

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/speech-ballots/models"
)

func intPtr(v int) *int { return &v }

func scores(vals ...int) models.Scores {
	ptrs := make([]*int, 5)
	for i := range ptrs {
		if i < len(vals) {
			ptrs[i] = intPtr(vals[i])
		}
	}
	return models.Scores{
		Content:               ptrs[0],
		OrganizationCitations: ptrs[1],
		Category3:             ptrs[2],
		Category4:             ptrs[3],
		Impact:                ptrs[4],
	}
}

func entry(eventID int, eventName, compID, compName string, s models.Scores) Entry {
	return Entry{
		EventTypeID:    eventID,
		EventTypeName:  eventName,
		CompetitorID:   compID,
		CompetitorName: compName,
		Scores:         s,
	}
}

func TestBallotTotal(t *testing.T) {
	tests := []struct {
		name   string
		scores models.Scores
		want   int
	}{
		{"all present", scores(5, 4, 3, 2, 1), 15},
		{"all empty", models.Scores{}, 0},
		{"missing score counts as zero", scores(5, 5, 5, 5), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BallotTotal(tt.scores))
		})
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	boards := Compute(nil)
	require.NotNil(t, boards)
	assert.Empty(t, boards)
}

func TestCompute_CompetitionRanking(t *testing.T) {
	// 14, 14, 14, 9
	entries := []Entry{
		entry(1, "Persuasive", "a", "Ann A", scores(3, 3, 3, 3, 2)),
		entry(1, "Persuasive", "b", "Bob B", scores(2, 3, 3, 3, 3)),
		entry(1, "Persuasive", "c", "Cal C", scores(3, 3, 2, 3, 3)),
		entry(1, "Persuasive", "d", "Dee D", scores(1, 2, 2, 2, 2)),
	}

	boards := Compute(entries)
	require.Len(t, boards, 1)

	got := boards[0].Competitors
	require.Len(t, got, 4)
	ranks := []int{got[0].Rank, got[1].Rank, got[2].Rank, got[3].Rank}
	assert.Equal(t, []int{1, 1, 1, 4}, ranks)
	assert.Equal(t, 9, got[3].TotalScore)
	assert.Equal(t, "d", got[3].CompetitorID)
}

func TestCompute_TieThenDistinct(t *testing.T) {
	entries := []Entry{
		entry(1, "Impromptu", "a", "Ann A", scores(5, 5, 5, 5, 5)),
		entry(1, "Impromptu", "b", "Bob B", scores(5, 5, 5, 5, 5)),
		entry(1, "Impromptu", "c", "Cal C", scores(4, 4, 4, 4, 4)),
		entry(1, "Impromptu", "d", "Dee D", scores(3, 3, 3, 3, 3)),
	}
	got := Compute(entries)[0].Competitors
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 1, got[1].Rank)
	assert.Equal(t, 3, got[2].Rank)
	assert.Equal(t, 4, got[3].Rank)
}

func TestCompute_AggregatesPerCompetitor(t *testing.T) {
	entries := []Entry{
		entry(2, "Informative", "a", "Ann A", scores(5, 5, 5, 5, 5)),
		entry(2, "Informative", "a", "Ann A", scores(4, 4, 4, 4, 4)),
		entry(2, "Informative", "b", "Bob B", scores(5, 5, 5, 5, 4)),
	}
	got := Compute(entries)[0].Competitors
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].CompetitorID)
	assert.Equal(t, 45, got[0].TotalScore)
	assert.Equal(t, 2, got[0].BallotCount)
	assert.InDelta(t, 22.5, got[0].AverageScore, 1e-9)

	assert.Equal(t, "b", got[1].CompetitorID)
	assert.Equal(t, 24, got[1].TotalScore)
	assert.Equal(t, 1, got[1].BallotCount)
}

func TestCompute_PartitionsAndSortsEvents(t *testing.T) {
	entries := []Entry{
		entry(3, "Persuasive", "a", "Ann A", scores(5, 5, 5, 5, 5)),
		entry(1, "Apologetics", "b", "Bob B", scores(3, 3, 3, 3, 3)),
		entry(2, "Informative", "a", "Ann A", scores(1, 1, 1, 1, 1)),
	}
	boards := Compute(entries)
	require.Len(t, boards, 3)
	assert.Equal(t, "Apologetics", boards[0].EventTypeName)
	assert.Equal(t, "Informative", boards[1].EventTypeName)
	assert.Equal(t, "Persuasive", boards[2].EventTypeName)

	// участник без бюллетеней в виде выступления в его таблицу не попадает
	for _, s := range boards[0].Competitors {
		assert.NotEqual(t, "a", s.CompetitorID)
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	entries := []Entry{
		entry(1, "Extemporaneous", "a", "Ann A", scores(5, 4, 3, 2, 1)),
		entry(1, "Extemporaneous", "b", "Bob B", scores(1, 2, 3, 4, 5)),
		entry(1, "Extemporaneous", "c", "Cal C", scores(5, 5, 5, 5, 5)),
		entry(1, "Extemporaneous", "a", "Ann A", scores(2, 2, 2, 2, 2)),
		entry(4, "Oratorical", "c", "Cal C", scores(4, 4, 4, 4)),
		entry(4, "Oratorical", "d", "Dee D", scores(4, 4, 4, 4, 4)),
	}
	want := Compute(entries)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]Entry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Compute(shuffled))
	}
}

func TestCompute_RankProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var entries []Entry
	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i := 0; i < 60; i++ {
		id := names[rng.Intn(len(names))]
		s := scores(rng.Intn(5)+1, rng.Intn(5)+1, rng.Intn(5)+1, rng.Intn(5)+1, rng.Intn(5)+1)
		entries = append(entries, entry(1, "Duo Interpretation", id, "Name "+id, s))
	}

	got := Compute(entries)[0].Competitors
	for i := range got {
		assert.InDelta(t, float64(got[i].TotalScore)/float64(got[i].BallotCount), got[i].AverageScore, 1e-9)
		if i == 0 {
			assert.Equal(t, 1, got[i].Rank)
			continue
		}
		assert.GreaterOrEqual(t, got[i-1].TotalScore, got[i].TotalScore)
		if got[i].TotalScore == got[i-1].TotalScore {
			assert.Equal(t, got[i-1].Rank, got[i].Rank)
		} else {
			assert.Equal(t, i+1, got[i].Rank)
		}
	}
}
