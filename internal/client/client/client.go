package client

import (
	"context"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
)

// Relationship names a user-to-object relationship collection.
type Relationship string

const (
	LikedImages     Relationship = "liked-images"
	SavedImages     Relationship = "saved-images"
	FollowedArtists Relationship = "followed-artists"
)

// objectType is the JSON:API resource type held by the collection.
func (r Relationship) objectType() string {
	if r == FollowedArtists {
		return "artist"
	}
	return "image"
}

// TokenSource supplies bearer tokens. AccessToken returns "" for anonymous
// use. Refresh is called at most once per request, after a 401; the failed
// request itself is never re-sent.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

type Client interface {
	RandomImage(ctx context.Context, ratings models.RatingSet) (*models.Image, error)
	Image(ctx context.Context, id string) (*models.Image, error)
	Artist(ctx context.Context, id string) (*models.Artist, error)
	ArtistImages(ctx context.Context, artistID string, limit, offset int) ([]models.Image, error)
	SetRelationship(ctx context.Context, rel Relationship, userID, objectID string, on bool) error
	ReportImage(ctx context.Context, imageID, reason string) error
	Me(ctx context.Context) (*models.User, error)
	UpdateUser(ctx context.Context, u models.User) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}
