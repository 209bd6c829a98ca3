package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/go-playground/validator/v10"
)

var (
	ErrSettingsNotLoaded = errors.New("settings not loaded")
	ErrNothingToSave     = errors.New("no changes to save")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]+$`)

// SettingsForm is the editable part of the profile.
type SettingsForm struct {
	Username  string `validate:"required,min=4,max=32,username"`
	Nickname  string `validate:"max=50"`
	Biography string `validate:"max=500"`
}

// SettingsService loads the signed-in user's profile into a draft that is
// edited field by field and then saved or discarded as a whole.
type SettingsService interface {
	Load(ctx context.Context) (*models.User, error)
	Saved() *models.User
	Draft() (SettingsForm, bool)
	SetUsername(v string)
	SetNickname(v string)
	SetBiography(v string)
	Validate() error
	Save(ctx context.Context) (*models.User, error)
	Discard()
}

type settingsService struct {
	mu       sync.Mutex
	api      client.Client
	sessions SessionReader
	validate *validator.Validate
	log      logging.Logger

	saved *models.User
	draft SettingsForm
}

func NewSettingsService(api client.Client, sessions SessionReader, log logging.Logger) SettingsService {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return &settingsService{api: api, sessions: sessions, validate: v, log: log}
}

func formOf(u *models.User) SettingsForm {
	return SettingsForm{Username: u.Username, Nickname: u.Nickname, Biography: u.Biography}
}

func (s *settingsService) Load(ctx context.Context) (*models.User, error) {
	if _, err := signedIn(s.sessions); err != nil {
		return nil, err
	}
	u, err := s.api.Me(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to load profile", "error", err)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = u
	s.draft = formOf(u)
	cp := *u
	return &cp, nil
}

func (s *settingsService) Saved() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return nil
	}
	cp := *s.saved
	return &cp
}

// Draft returns the edited form and whether it differs from the saved profile.
func (s *settingsService) Draft() (SettingsForm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return s.draft, false
	}
	return s.draft, s.draft != formOf(s.saved)
}

func (s *settingsService) SetUsername(v string) {
	s.edit(func(f *SettingsForm) { f.Username = v })
}

func (s *settingsService) SetNickname(v string) {
	s.edit(func(f *SettingsForm) { f.Nickname = v })
}

func (s *settingsService) SetBiography(v string) {
	s.edit(func(f *SettingsForm) { f.Biography = v })
}

func (s *settingsService) edit(fn func(*SettingsForm)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.draft)
}

func (s *settingsService) Validate() error {
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()

	if err := s.validate.Struct(draft); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func (s *settingsService) Save(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	if s.saved == nil {
		s.mu.Unlock()
		return nil, ErrSettingsNotLoaded
	}
	draft := s.draft
	u := *s.saved
	s.mu.Unlock()

	if draft == formOf(&u) {
		return nil, ErrNothingToSave
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	u.Username, u.Nickname, u.Biography = draft.Username, draft.Nickname, draft.Biography
	updated, err := s.api.UpdateUser(ctx, u)
	if err != nil {
		s.log.Error(ctx, "failed to save profile", "error", err)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = updated
	s.draft = formOf(updated)
	cp := *updated
	return &cp, nil
}

func (s *settingsService) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.draft = SettingsForm{}
		return
	}
	s.draft = formOf(s.saved)
}
