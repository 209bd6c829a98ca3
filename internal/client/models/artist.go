package models

// Artist is an artist profile. FollowerCount and ImageCount come from
// relationship metadata and are zero when the API omits them.
type Artist struct {
	ID            string
	Name          string
	ImageURL      string
	Aliases       []string
	Links         []string
	FollowerCount int
	ImageCount    int
	IsFollowing   bool
}
