package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"smart-todo/internal/mail"
	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

// SettingsService is the single entry point for runtime configuration stored in the
// settings row. Nothing caches it in memory.
type SettingsService struct {
	repo     *repository.SettingRepository
	defaults model.Setting
	log      *logrus.Entry
}

func NewSettingsService(repo *repository.SettingRepository, defaults model.Setting, log *logrus.Entry) *SettingsService {
	return &SettingsService{repo: repo, defaults: defaults, log: log}
}

func (s *SettingsService) Get(ctx context.Context) (*model.Setting, error) {
	return s.repo.Load(ctx, s.defaults)
}

// DefaultReminderTimes falls back to the configured defaults if the row cannot be read.
func (s *SettingsService) DefaultReminderTimes(ctx context.Context) []int {
	st, err := s.Get(ctx)
	if err != nil {
		s.log.WithError(err).Warn("load settings, using configured reminder times")
		return s.defaults.DefaultReminderTimes
	}
	if len(st.DefaultReminderTimes) == 0 {
		return s.defaults.DefaultReminderTimes
	}
	return st.DefaultReminderTimes
}

func (s *SettingsService) SetDefaultReminderTimes(ctx context.Context, times []int) error {
	norm := model.Offsets(times).Normalize()
	if len(norm) == 0 {
		return fmt.Errorf("%w: at least one positive reminder time is required", ErrInvalidInput)
	}
	st, err := s.Get(ctx)
	if err != nil {
		return err
	}
	st.DefaultReminderTimes = norm
	return s.repo.Save(ctx, st)
}

func (s *SettingsService) EmailVerificationEnabled(ctx context.Context) (bool, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return st.EmailVerificationEnabled, nil
}

// ToggleEmailVerification flips the flag and returns the new value.
func (s *SettingsService) ToggleEmailVerification(ctx context.Context) (bool, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	st.EmailVerificationEnabled = !st.EmailVerificationEnabled
	if err := s.repo.Save(ctx, st); err != nil {
		return false, err
	}
	s.log.WithField("enabled", st.EmailVerificationEnabled).Info("email verification toggled")
	return st.EmailVerificationEnabled, nil
}

// MailUpdate carries optional SMTP changes; nil fields are left untouched.
type MailUpdate struct {
	Server   *string `json:"mail_server"`
	Port     *int    `json:"mail_port"`
	UseTLS   *bool   `json:"mail_use_tls"`
	Username *string `json:"mail_username"`
	Password *string `json:"mail_password"`
	Sender   *string `json:"mail_default_sender"`
}

func (s *SettingsService) UpdateMail(ctx context.Context, u MailUpdate) error {
	st, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if u.Server != nil {
		st.MailServer = *u.Server
	}
	if u.Port != nil {
		if *u.Port <= 0 || *u.Port > 65535 {
			return fmt.Errorf("%w: mail port %d", ErrInvalidInput, *u.Port)
		}
		st.MailPort = *u.Port
	}
	if u.UseTLS != nil {
		st.MailUseTLS = *u.UseTLS
	}
	if u.Username != nil {
		st.MailUsername = *u.Username
	}
	if u.Password != nil {
		st.MailPassword = *u.Password
	}
	if u.Sender != nil {
		st.MailDefaultSender = *u.Sender
	}
	return s.repo.Save(ctx, st)
}

// MailSettings implements mail.SettingsSource.
func (s *SettingsService) MailSettings(ctx context.Context) (mail.Settings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return mail.Settings{}, err
	}
	return mail.Settings{
		Host:     st.MailServer,
		Port:     st.MailPort,
		UseTLS:   st.MailUseTLS,
		Username: st.MailUsername,
		Password: st.MailPassword,
		Sender:   st.MailDefaultSender,
	}, nil
}
