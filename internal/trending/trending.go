// Package trending ranks posts with a time-decayed net-vote score,
// computed on read and never stored.
package trending

import (
	"math"
	"sort"
	"time"

	"confide/internal/models"
)

// gravity controls how fast older posts sink. Fixed policy.
const gravity = 1.8

// Score computes the trending score for a post:
//
//	(upvotes - downvotes) / (ageHours + 2)^1.8
//
// Age is fractional hours, so the denominator is always >= 2 and a fresh
// zero-vote post scores exactly 0.
func Score(upvotes, downvotes int, createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	return float64(upvotes-downvotes) / math.Pow(ageHours+2, gravity)
}

// Ranked pairs a post with its computed score.
type Ranked struct {
	Post  *models.Post
	Score float64
}

// Rank scores the candidate set and returns it sorted descending. The
// sort is stable, so ties keep their fetch order.
func Rank(posts []*models.Post, now time.Time) []Ranked {
	ranked := make([]Ranked, len(posts))
	for i, p := range posts {
		ranked[i] = Ranked{Post: p, Score: Score(p.Upvotes, p.Downvotes, p.CreatedAt, now)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
