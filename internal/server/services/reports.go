// Package services holds the relay's business logic.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/server/discord"
	"github.com/Nekos-API/Nekos.Land/internal/server/models"
	"github.com/Nekos-API/Nekos.Land/internal/server/repositories/reports"
)

const (
	ReportTitle = "Nekos.Land Image Report"
	ReportColor = 0xff8787

	MaxMessageLen = 200
)

var (
	ErrInvalidReport = errors.New("invalid report")
	ErrDelivery      = errors.New("report delivery failed")
)

type ReportRequest struct {
	ImageID string `validate:"required,max=64"`
	Message string `validate:"max=200"`
}

type ReportService interface {
	// Submit stores the report and forwards it to the moderators.
	Submit(ctx context.Context, user *models.User, req ReportRequest) (*models.Report, error)
}

type reportService struct {
	repo     reports.Repository
	sender   discord.Sender
	adminURL string
	validate *validator.Validate
	logger   logging.Logger
	now      func() time.Time
}

// NewReportService wires the report flow. repo may be nil, in which case
// reports are only forwarded.
func NewReportService(repo reports.Repository, sender discord.Sender, adminURL string, l logging.Logger) ReportService {
	return &reportService{
		repo:     repo,
		sender:   sender,
		adminURL: strings.TrimRight(adminURL, "/"),
		validate: validator.New(),
		logger:   l.With("module", "report_service"),
		now:      time.Now,
	}
}

func (s *reportService) Submit(ctx context.Context, user *models.User, req ReportRequest) (*models.Report, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: no reporting user", ErrInvalidReport)
	}
	req.ImageID = strings.TrimSpace(req.ImageID)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	report := &models.Report{
		ImageID:  req.ImageID,
		UserID:   user.ID,
		Username: user.Username,
		Message:  req.Message,
	}

	stored := false
	if s.repo != nil {
		r, err := s.repo.Create(ctx, report)
		if err != nil {
			s.logger.Error(ctx, "storing report", "image_id", req.ImageID, "error", err)
		} else {
			report, stored = r, true
		}
	}

	msg := ReportMessage(s.adminURL, user, req, s.now())
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "forwarding report", "image_id", req.ImageID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	report.Delivered = true

	if stored {
		if err := s.repo.MarkDelivered(ctx, report.ID); err != nil {
			s.logger.Warn(ctx, "marking report delivered", "id", report.ID, "error", err)
		}
	}

	s.logger.Info(ctx, "report forwarded", "image_id", req.ImageID, "user_id", user.ID)
	return report, nil
}

// ReportMessage builds the webhook payload for one report. Image and user
// ids link to their admin pages.
func ReportMessage(adminURL string, user *models.User, req ReportRequest, at time.Time) discord.Message {
	userPage := adminURL + "/users/user/" + url.PathEscape(user.ID) + "/change/"
	imagePage := adminURL + "/images/image/" + url.PathEscape(req.ImageID) + "/change/"

	return discord.Message{
		Embeds: []discord.Embed{{
			Title:       ReportTitle,
			Description: req.Message,
			Color:       ReportColor,
			Author: &discord.Author{
				Name:    user.Username,
				URL:     userPage,
				IconURL: user.AvatarImage,
			},
			Fields: []discord.Field{
				{Name: "Image ID", Value: fmt.Sprintf("[%s](%s)", req.ImageID, imagePage)},
				{Name: "User ID", Value: fmt.Sprintf("[%s](%s)", user.ID, userPage)},
			},
			Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}},
	}
}
