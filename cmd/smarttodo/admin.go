package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"smart-todo/internal/auth"
	"smart-todo/internal/config"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

// addUser registers an account. Sign-up lives outside this service; this is for operators.
// While email verification is enabled the account starts unverified.
func addUser(cfg config.Config, db *gorm.DB, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	username := fs.String("username", "", "account name (required)")
	email := fs.String("email", "", "address for reminder emails")
	telegram := fs.String("telegram", "", "telegram username used by /start to link the chat")
	admin := fs.Bool("admin", false, "grant access to /api/admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings := service.NewSettingsService(repository.NewSettingRepository(db), settingsDefaults(cfg), log)
	accounts := service.NewAccountService(repository.NewUserRepository(db), repository.NewNotificationRepository(db),
		nil, settings, nil, log)
	user, err := accounts.Register(context.Background(), service.UserInput{
		Username:         *username,
		Email:            *email,
		TelegramUsername: *telegram,
		IsAdmin:          *admin,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created user %d (%s, verified=%t)\n", user.ID, user.Username, user.Verified)
	return nil
}

// issueToken prints a bearer token for an existing user.
func issueToken(cfg config.Config, db *gorm.DB, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.Uint("user", 0, "user id (required)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := repository.NewUserRepository(db).FindByID(context.Background(), *userID)
	if err != nil {
		return fmt.Errorf("find user %d: %w", *userID, err)
	}
	token, err := auth.NewIssuer(cfg.JWTSecret, *ttl).Generate(user.ID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
