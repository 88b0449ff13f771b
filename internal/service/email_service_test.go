package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/service"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/stretchr/testify/require"
)

type emailFixture struct {
	repo   *mockSessionRepo
	users  *mockUserDirectory
	mailer *mockMailer
	svc    service.EmailService
}

func newEmailFixture() *emailFixture {
	repo := newMockSessionRepo()
	projects := &mockProjectDirectory{projects: map[string]*domain.Project{"p1": testProject("p1")}}
	users := &mockUserDirectory{users: map[string]*domain.User{}}
	m := &mockMailer{}

	cfg := &config.Config{}
	cfg.Lobby.HostEmailWindow = time.Minute

	return &emailFixture{
		repo:   repo,
		users:  users,
		mailer: m,
		svc:    service.NewEmailService(repo, projects, users, m, cfg),
	}
}

func TestSendHostNotification(t *testing.T) {
	f := newEmailFixture()
	ctx := context.Background()
	f.repo.put(activeSession("s1", "p1", "g@example.com"))

	outcome, err := f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendSuccess, outcome)
	require.Equal(t, []string{"host@example.com"}, f.mailer.hostEmails)

	session, _ := f.repo.GetByID(ctx, "s1")
	require.NotNil(t, session.EmailedHostAt)
}

func TestSendHostNotificationThrottled(t *testing.T) {
	f := newEmailFixture()
	ctx := context.Background()
	f.repo.put(activeSession("s1", "p1", "g@example.com"))

	outcome, err := f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendSuccess, outcome)

	// A second send within the window is refused without mailing.
	outcome, err = f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendMessageSentRecently, outcome)
	require.Equal(t, 1, f.mailer.hostEmailCount())
}

func TestSendHostNotificationAfterWindow(t *testing.T) {
	f := newEmailFixture()
	ctx := context.Background()

	s := activeSession("s1", "p1", "g@example.com")
	stale := time.Now().Add(-2 * time.Minute)
	s.EmailedHostAt = &stale
	f.repo.put(s)

	outcome, err := f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendSuccess, outcome)
}

func TestSendHostNotificationUnverifiedUser(t *testing.T) {
	f := newEmailFixture()
	ctx := context.Background()
	f.repo.put(activeSession("s1", "p1", "g@example.com"))
	f.users.users["g@example.com"] = &domain.User{ID: "u1", OrgID: "other-org", IsEmailVerified: false}

	outcome, err := f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendEmailNotVerified, outcome)
	require.Zero(t, f.mailer.hostEmailCount())
}

func TestSendHostNotificationTransportFailure(t *testing.T) {
	f := newEmailFixture()
	ctx := context.Background()
	f.repo.put(activeSession("s1", "p1", "g@example.com"))
	f.mailer.sendErr = fmt.Errorf("smtp connection refused")

	outcome, err := f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendFailed, outcome)

	// The claim was released, so a retry is not throttled by the failed send.
	f.mailer.sendErr = nil
	outcome, err = f.svc.SendHostNotification(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, domain.SendSuccess, outcome)
	require.Equal(t, 1, f.mailer.hostEmailCount())
}

func TestSendHostNotificationMissingSession(t *testing.T) {
	f := newEmailFixture()

	outcome, err := f.svc.SendHostNotification(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, domain.SendFailed, outcome)
}

func TestSendHostNotificationEndedSession(t *testing.T) {
	f := newEmailFixture()
	s := activeSession("s1", "p1", "g@example.com")
	s.State = domain.SessionEnded
	f.repo.put(s)

	outcome, err := f.svc.SendHostNotification(context.Background(), "s1")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.Equal(t, domain.SendFailed, outcome)
}
