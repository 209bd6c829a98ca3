package models

import (
	"errors"
	"fmt"
	"strings"
)

// AgeRating is the content rating label of an image.
type AgeRating string

const (
	RatingSFW          AgeRating = "sfw"
	RatingQuestionable AgeRating = "questionable"
	RatingSuggestive   AgeRating = "suggestive"
	RatingBorderline   AgeRating = "borderline"
	RatingExplicit     AgeRating = "explicit"
)

// AllAgeRatings lists every rating in display order.
var AllAgeRatings = []AgeRating{RatingSFW, RatingQuestionable, RatingSuggestive, RatingBorderline, RatingExplicit}

// ErrUnknownRating is returned by ParseAgeRating.
var ErrUnknownRating = errors.New("unknown age rating")

// ErrLastRating is returned when removing the only selected rating.
var ErrLastRating = errors.New("at least one age rating must stay selected")

func ParseAgeRating(s string) (AgeRating, error) {
	r := AgeRating(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllAgeRatings {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRating, s)
}

// VerificationStatus is the moderation state of an image.
type VerificationStatus string

const (
	StatusVerified    VerificationStatus = "verified"
	StatusOnReview    VerificationStatus = "on_review"
	StatusNotReviewed VerificationStatus = "not_reviewed"
)

// FeedStatuses are the verification states the random feed draws from.
var FeedStatuses = []VerificationStatus{StatusVerified, StatusOnReview, StatusNotReviewed}

// RatingSet is the non-empty set of age ratings the feed is filtered by.
// The zero value is not usable; build one with DefaultRatingSet or
// NewRatingSet.
type RatingSet struct {
	on map[AgeRating]bool
}

// DefaultRatingSet selects sfw and questionable.
func DefaultRatingSet() RatingSet {
	s, _ := NewRatingSet(RatingSFW, RatingQuestionable)
	return s
}

// NewRatingSet builds a set from ratings. At least one known rating is required.
func NewRatingSet(ratings ...AgeRating) (RatingSet, error) {
	s := RatingSet{on: make(map[AgeRating]bool, len(AllAgeRatings))}
	for _, r := range ratings {
		if _, err := ParseAgeRating(string(r)); err != nil {
			return RatingSet{}, err
		}
		s.on[r] = true
	}
	if len(s.on) == 0 {
		return RatingSet{}, ErrLastRating
	}
	return s, nil
}

// Clone returns a set that does not share storage with s.
func (s RatingSet) Clone() RatingSet {
	out := RatingSet{on: make(map[AgeRating]bool, len(s.on))}
	for r, on := range s.on {
		out.on[r] = on
	}
	return out
}

func (s RatingSet) Has(r AgeRating) bool {
	return s.on[r]
}

// Toggle flips r. Deselecting the last selected rating leaves the set
// unchanged and returns ErrLastRating.
func (s *RatingSet) Toggle(r AgeRating) error {
	if _, err := ParseAgeRating(string(r)); err != nil {
		return err
	}
	if s.on == nil {
		s.on = make(map[AgeRating]bool)
	}
	if !s.on[r] {
		s.on[r] = true
		return nil
	}
	if len(s.on) == 1 {
		return ErrLastRating
	}
	delete(s.on, r)
	return nil
}

// Values returns the selected ratings in display order.
func (s RatingSet) Values() []AgeRating {
	out := make([]AgeRating, 0, len(s.on))
	for _, r := range AllAgeRatings {
		if s.on[r] {
			out = append(out, r)
		}
	}
	return out
}

func (s RatingSet) Len() int { return len(s.on) }

// String joins the selected ratings with commas, the form used in filters.
func (s RatingSet) String() string {
	vals := s.Values()
	parts := make([]string, len(vals))
	for i, r := range vals {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
