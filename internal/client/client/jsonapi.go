package client

import (
	"encoding/json"
	"fmt"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
)

type document struct {
	Data     json.RawMessage `json:"data"`
	Included []resource      `json:"included"`
}

type resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
	Meta          resourceMeta            `json:"meta"`
}

type resourceMeta struct {
	User struct {
		Liked       bool `json:"liked"`
		Saved       bool `json:"saved"`
		IsFollowing bool `json:"isFollowing"`
	} `json:"user"`
}

type relationship struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
}

type identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type imageAttributes struct {
	File               string `json:"file"`
	AgeRating          string `json:"ageRating"`
	VerificationStatus string `json:"verificationStatus"`
	Colors             struct {
		Dominant string   `json:"dominant"`
		Palette  []string `json:"palette"`
	} `json:"colors"`
	Source struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"source"`
}

type artistAttributes struct {
	Name          string   `json:"name"`
	ImageURL      string   `json:"imageUrl"`
	Aliases       []string `json:"aliases"`
	OfficialLinks []string `json:"officialLinks"`
}

type userAttributes struct {
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	Biography   string `json:"biography"`
	Email       string `json:"email,omitempty"`
	AvatarImage string `json:"avatarImage,omitempty"`
}

type relationshipBody struct {
	Data []identifier `json:"data"`
}

type userPatchBody struct {
	Data struct {
		Type       string         `json:"type"`
		ID         string         `json:"id"`
		Attributes userAttributes `json:"attributes"`
	} `json:"data"`
}

func malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformedPayload, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, what, err)
}

func (d *document) single() (resource, error) {
	var r resource
	if len(d.Data) == 0 || string(d.Data) == "null" {
		return r, malformed("missing data", nil)
	}
	if err := json.Unmarshal(d.Data, &r); err != nil {
		return r, malformed("data", err)
	}
	if r.ID == "" {
		return r, malformed("resource without id", nil)
	}
	return r, nil
}

func (d *document) many() ([]resource, error) {
	var rs []resource
	if len(d.Data) == 0 {
		return nil, malformed("missing data", nil)
	}
	if err := json.Unmarshal(d.Data, &rs); err != nil {
		return nil, malformed("data", err)
	}
	return rs, nil
}

// includedArtist finds the artist an image points to. Without a linkage it
// falls back to the first included artist.
func includedArtist(img resource, included []resource) (resource, bool) {
	var want identifier
	if rel, ok := img.Relationships["artist"]; ok && len(rel.Data) > 0 {
		_ = json.Unmarshal(rel.Data, &want)
	}
	for _, inc := range included {
		if inc.Type != "artist" {
			continue
		}
		if want.ID == "" || inc.ID == want.ID {
			return inc, true
		}
	}
	return resource{}, false
}

func toImage(r resource, included []resource) (*models.Image, error) {
	var attrs imageAttributes
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return nil, malformed("image attributes", err)
		}
	}

	img := &models.Image{
		ID:                 r.ID,
		FileURL:            attrs.File,
		AgeRating:          models.AgeRating(attrs.AgeRating),
		VerificationStatus: models.VerificationStatus(attrs.VerificationStatus),
		Dominant:           attrs.Colors.Dominant,
		Palette:            attrs.Colors.Palette,
		SourceURL:          attrs.Source.URL,
		SourceName:         attrs.Source.Name,
		Liked:              r.Meta.User.Liked,
		Saved:              r.Meta.User.Saved,
	}

	if ar, ok := includedArtist(r, included); ok {
		artist, err := toArtist(ar)
		if err != nil {
			return nil, err
		}
		img.Artist = artist
	}
	return img, nil
}

func toArtist(r resource) (*models.Artist, error) {
	var attrs artistAttributes
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return nil, malformed("artist attributes", err)
		}
	}
	return &models.Artist{
		ID:            r.ID,
		Name:          attrs.Name,
		ImageURL:      attrs.ImageURL,
		Aliases:       attrs.Aliases,
		Links:         attrs.OfficialLinks,
		FollowerCount: r.Relationships["followers"].Meta.Count,
		ImageCount:    r.Relationships["images"].Meta.Count,
		IsFollowing:   r.Meta.User.IsFollowing,
	}, nil
}

func toUser(r resource) (*models.User, error) {
	var attrs userAttributes
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return nil, malformed("user attributes", err)
		}
	}
	return &models.User{
		ID:          r.ID,
		Username:    attrs.Username,
		Nickname:    attrs.Nickname,
		Biography:   attrs.Biography,
		Email:       attrs.Email,
		AvatarImage: attrs.AvatarImage,
	}, nil
}
