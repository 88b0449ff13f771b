package mailer

import (
	"github.com/diagnosis/guestlobby/pkg/logger"
)

// DevMailer logs messages instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendGuestInviteEmail(toEmail, projectName, accessCode, joinURL string) error {
	logger.Info("[DEV MAIL] Guest invite",
		"to", toEmail,
		"project", projectName,
		"access_code", accessCode,
		"join_url", joinURL,
	)
	return nil
}

func (d *DevMailer) SendHostLobbyEmail(toEmail, guestName, projectName string) error {
	logger.Info("[DEV MAIL] Host lobby alert",
		"to", toEmail,
		"guest", guestName,
		"project", projectName,
	)
	return nil
}
