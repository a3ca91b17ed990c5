package fsrs

import "fmt"

// Rating is the learner's self-reported recall outcome for a review.
// The numeric order matters: several formulas use (rating - 3) as a
// signed offset around Good.
type Rating int

const (
	Again Rating = 1 // failed recall
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4 // trivial recall
)

// Ratings lists all ratings in ascending order.
var Ratings = [4]Rating{Again, Hard, Good, Easy}

var ratingNames = map[Rating]string{
	Again: "again",
	Hard:  "hard",
	Good:  "good",
	Easy:  "easy",
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the lowercase rating name, or "rating(n)" for
// out-of-range values.
func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rating(%d)", int(r))
}
