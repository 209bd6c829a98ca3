package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/atotto/clipboard"
	"github.com/go-playground/validator/v10"
)

// MaxReasonLen caps the free-text report reason.
const MaxReasonLen = 200

const moderationGuide = "https://nekosapi.com/guides/content-moderation"

// Clipboard receives text the user is expected to paste elsewhere.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

type ReportOutcome int

const (
	// ReportSent means the report reached the API or the relay.
	ReportSent ReportOutcome = iota
	// ReportCopied means a report message was put on the clipboard for the
	// user to post manually.
	ReportCopied
)

type ReportResult struct {
	Outcome ReportOutcome
	Payload string
}

type reportForm struct {
	ImageID string `validate:"required"`
	Reason  string `validate:"max=200"`
}

type ReportService interface {
	// Notice explains why reporting img is unnecessary, or returns "".
	Notice(img *models.Image) string
	Report(ctx context.Context, img *models.Image, reason string) (*ReportResult, error)
}

type reportService struct {
	reporter  client.Reporter
	sessions  SessionReader
	clipboard Clipboard
	validate  *validator.Validate
	log       logging.Logger
}

// NewReportService sends reports through reporter when signed in and falls
// back to the clipboard otherwise.
func NewReportService(reporter client.Reporter, sessions SessionReader, cb Clipboard, log logging.Logger) ReportService {
	return &reportService{
		reporter:  reporter,
		sessions:  sessions,
		clipboard: cb,
		validate:  validator.New(),
		log:       log,
	}
}

func (r *reportService) Notice(img *models.Image) string {
	if img == nil {
		return ""
	}
	switch img.VerificationStatus {
	case models.StatusOnReview:
		return "This image is still being reviewed, so there is no need to report it. Read more: " + moderationGuide
	case models.StatusNotReviewed:
		return "This image has not been reviewed yet, so there is no need to report it. Read more: " + moderationGuide
	}
	return ""
}

func (r *reportService) Report(ctx context.Context, img *models.Image, reason string) (*ReportResult, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	form := reportForm{ImageID: img.ID, Reason: strings.TrimSpace(reason)}
	if err := r.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}

	if _, err := signedIn(r.sessions); err == nil {
		if err := r.reporter.ReportImage(ctx, form.ImageID, form.Reason); err != nil {
			r.log.Error(ctx, "image report failed", "image", form.ImageID, "error", err)
			return nil, fmt.Errorf("report image: %w", err)
		}
		r.log.Info(ctx, "image reported", "image", form.ImageID)
		return &ReportResult{Outcome: ReportSent}, nil
	}

	payload, err := AnonymousReport(form.ImageID, form.Reason)
	if err != nil {
		return nil, err
	}
	if err := r.clipboard.WriteAll(payload); err != nil {
		return nil, fmt.Errorf("copy report: %w", err)
	}
	return &ReportResult{Outcome: ReportCopied, Payload: payload}, nil
}

// AnonymousReport renders the message an anonymous user posts in the image
// reports channel.
func AnonymousReport(imageID, reason string) (string, error) {
	body, err := json.MarshalIndent(struct {
		ImageID string  `json:"imageID"`
		User    *string `json:"user"`
		Error   bool    `json:"error"`
	}{ImageID: imageID, Error: true}, "", "    ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("There is an issue with this image in Nekos.Land:\n```js\n")
	b.Write(body)
	b.WriteString("\n```")
	if reason != "" {
		b.WriteString("\nReason:\n> ")
		b.WriteString(reason)
	}
	return b.String(), nil
}
