package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

// UserInput describes an account created by an operator.
type UserInput struct {
	Username         string
	Email            string
	TelegramUsername string
	IsAdmin          bool
}

// AccountService covers user-wide actions: registration, broadcasts and mail checks.
type AccountService struct {
	users    *repository.UserRepository
	notifier Notifier
	mailer   Mailer
	settings *SettingsService
	clock    Clock
	log      *logrus.Entry
}

func NewAccountService(users *repository.UserRepository, notifier Notifier, mailer Mailer, settings *SettingsService, clock Clock, log *logrus.Entry) *AccountService {
	if clock == nil {
		clock = time.Now
	}
	return &AccountService{users: users, notifier: notifier, mailer: mailer, settings: settings, clock: clock, log: log}
}

// Register creates a user. While email verification is enabled the account starts
// unverified and gets a system notification saying so.
func (s *AccountService) Register(ctx context.Context, in UserInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	verification, err := s.settings.EmailVerificationEnabled(ctx)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:         username,
		Email:            strings.TrimSpace(in.Email),
		TelegramUsername: strings.TrimPrefix(strings.TrimSpace(in.TelegramUsername), "@"),
		IsAdmin:          in.IsAdmin,
		Verified:         !verification,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if !user.Verified {
		if _, err := s.notifier.Add(ctx, user.ID, "Email not verified",
			"Your email address has not been verified yet. Some features are limited until it is.",
			model.NotificationSystem); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("add verification notice")
		}
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "verified": user.Verified}).Info("user registered")
	return user, nil
}

// Broadcast adds a system notification for every user and returns how many were sent.
func (s *AccountService) Broadcast(ctx context.Context, title, content string) (int, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return 0, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	sent := 0
	for _, u := range users {
		if _, err := s.notifier.Add(ctx, u.ID, title, content, model.NotificationSystem); err != nil {
			return sent, fmt.Errorf("notify user %d: %w", u.ID, err)
		}
		sent++
	}
	s.log.WithField("recipients", sent).Info("broadcast sent")
	return sent, nil
}

// SendTestEmail mails a configuration check to the user's own address and returns it.
// mail.ErrNotConfigured is passed through for the caller to report.
func (s *AccountService) SendTestEmail(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Email == "" {
		return "", fmt.Errorf("%w: no email address set for this account", ErrInvalidInput)
	}
	body := "This is a test message to check the SMTP settings.\n" +
		"If you received it, email delivery works.\n" +
		"Time: " + s.clock().Format(time.DateTime)
	if err := s.mailer.Send(ctx, user.Email, "Smart To-Do mail configuration test", body); err != nil {
		return user.Email, fmt.Errorf("send test email: %w", err)
	}
	return user.Email, nil
}
