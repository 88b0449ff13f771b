package mailer

type Service interface {
	SendGuestInviteEmail(toEmail, projectName, accessCode, joinURL string) error
	SendHostLobbyEmail(toEmail, guestName, projectName string) error
}
