package model

import (
	"slices"
	"strings"

	"cleanbook/shared/constant"
	"cleanbook/shared/model"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	TableName  = "cleaners"
	EntityName = "cleaner"

	FieldID            = "id"
	FieldDisplayName   = "display_name"
	FieldBio           = "bio"
	FieldServiceAreas  = "service_areas"
	FieldAvatar        = "avatar"
	FieldRating        = "rating"
	FieldReviewCount   = "review_count"
	FieldCompletedJobs = "completed_jobs"
	FieldActive        = "active"
)

var SortableColumns = []string{FieldDisplayName, FieldRating, FieldReviewCount, FieldCompletedJobs, constant.FieldCreatedAt}

// Cleaner is the public profile of a user with the cleaner role. ID is the user's ID.
type Cleaner struct {
	ID            string          `db:"id"`
	DisplayName   string          `db:"display_name"`
	Bio           string          `db:"bio"`
	ServiceAreas  pq.StringArray  `db:"service_areas"`
	Avatar        string          `db:"avatar"`
	Rating        decimal.Decimal `db:"rating"`
	ReviewCount   int             `db:"review_count"`
	CompletedJobs int             `db:"completed_jobs"`
	Active        bool            `db:"active"`
	model.Metadata
}

// Serves reports whether location is one of the cleaner's service areas, ignoring case.
func (c Cleaner) Serves(location string) bool {
	location = NormalizeArea(location)

	return slices.ContainsFunc(c.ServiceAreas, func(area string) bool {
		return NormalizeArea(area) == location
	})
}

func NormalizeArea(area string) string {
	return strings.ToLower(strings.Join(strings.Fields(area), " "))
}

// Rank orders cleaners for matching: rating desc, completed jobs desc, display name asc.
func Rank(cleaners []Cleaner) {
	slices.SortStableFunc(cleaners, func(a, b Cleaner) int {
		if cmp := b.Rating.Cmp(a.Rating); cmp != 0 {
			return cmp
		}

		if a.CompletedJobs != b.CompletedJobs {
			return b.CompletedJobs - a.CompletedJobs
		}

		return strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName))
	})
}

// Match keeps active cleaners serving location that are not busy, ranked.
func Match(candidates []Cleaner, location string, busy map[string]bool) []Cleaner {
	res := make([]Cleaner, 0, len(candidates))

	for _, c := range candidates {
		if !c.Active || busy[c.ID] || !c.Serves(location) {
			continue
		}

		res = append(res, c)
	}

	Rank(res)

	return res
}
