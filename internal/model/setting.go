package model

import "time"

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// Setting holds runtime configuration that admins can change without a restart.
type Setting struct {
	ID                       uint      `gorm:"primaryKey" json:"-"`
	EmailVerificationEnabled bool      `gorm:"default:false" json:"email_verification_enabled"`
	DefaultReminderTimes     Offsets   `gorm:"serializer:json" json:"default_reminder_times"`
	MailServer               string    `json:"mail_server"`
	MailPort                 int       `json:"mail_port"`
	MailUseTLS               bool      `json:"mail_use_tls"`
	MailUsername             string    `json:"mail_username"`
	MailPassword             string    `json:"-"`
	MailDefaultSender        string    `json:"mail_default_sender"`
	UpdatedAt                time.Time `json:"updated_at"`
}
