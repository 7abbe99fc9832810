// Package services contains the derivation pipeline and the refresh loop.
package services

import (
	"sort"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

// ReferencePolicy selects which record all others are normalized against.
type ReferencePolicy string

const (
	// PolicyMaxViews picks the record with the largest views per day.
	PolicyMaxViews ReferencePolicy = "max_views"
	// PolicyByTitle picks the record matching a configured title.
	PolicyByTitle ReferencePolicy = "by_title"
)

// PipelineConfig parameterizes a derivation run.
type PipelineConfig struct {
	CohortYear     int
	Policy         ReferencePolicy
	ReferenceTitle string
}

// FilterCohort keeps the records of the given year that carry both metrics
// with strictly positive values, ordered by views per day descending. Ties
// keep their original relative order. The input is never mutated.
func FilterCohort(songs []domain.Song, year int) []domain.Song {
	eligible := make([]domain.Song, 0, len(songs))
	for _, s := range songs {
		if s.Eligible(year) {
			eligible = append(eligible, s)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ViewsPerDay > eligible[j].ViewsPerDay
	})

	return eligible
}

// SelectReference picks the normalization reference from the eligible set.
func SelectReference(eligible []domain.Song, policy ReferencePolicy, title string) (domain.Song, error) {
	switch policy {
	case PolicyByTitle:
		for _, s := range eligible {
			if s.Title == title {
				return s, nil
			}
		}
		return domain.Song{}, domain.ReferenceNotFoundError{Policy: string(policy), Title: title}
	default:
		// FilterCohort sorts views per day descending, so the reference
		// under max_views is the first record.
		if len(eligible) == 0 {
			return domain.Song{}, domain.ReferenceNotFoundError{Policy: string(PolicyMaxViews)}
		}
		return eligible[0], nil
	}
}

// Normalize expresses each record's metrics as percentages of the reference.
// The reference itself maps to (100, 100, 0).
func Normalize(eligible []domain.Song, ref domain.Song) ([]domain.Derived, error) {
	if ref.ViewsPerDay == 0 {
		return nil, domain.DivisionError{Metric: "views per day"}
	}
	if ref.VoteTotal == 0 {
		return nil, domain.DivisionError{Metric: "vote total"}
	}

	derived := make([]domain.Derived, len(eligible))
	for i, s := range eligible {
		views := 100 * s.ViewsPerDay / ref.ViewsPerDay
		votes := 100 * s.VoteTotal / ref.VoteTotal
		derived[i] = domain.Derived{
			Song:                 s,
			NormalizedViews:      views,
			NormalizedVotes:      votes,
			ProportionDifference: views - votes,
		}
	}

	return derived, nil
}

// Derive runs the full pipeline: filter the cohort, select the reference,
// normalize.
func Derive(songs []domain.Song, cfg PipelineConfig) ([]domain.Derived, error) {
	eligible := FilterCohort(songs, cfg.CohortYear)

	ref, err := SelectReference(eligible, cfg.Policy, cfg.ReferenceTitle)
	if err != nil {
		return nil, err
	}

	return Normalize(eligible, ref)
}
