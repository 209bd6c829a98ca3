package models

// Image is the projection of one API image the client displays.
type Image struct {
	ID                 string
	FileURL            string
	AgeRating          AgeRating
	VerificationStatus VerificationStatus
	Dominant           string
	Palette            []string
	SourceURL          string
	SourceName         string
	Artist             *Artist
	Liked              bool
	Saved              bool
}

// Reviewed reports whether moderators already verified the image.
func (i *Image) Reviewed() bool {
	return i.VerificationStatus == StatusVerified
}
