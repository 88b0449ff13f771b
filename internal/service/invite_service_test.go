package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/service"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/stretchr/testify/require"
)

type inviteFixture struct {
	repo   *mockInviteRepo
	mailer *mockMailer
	bus    *mockPublisher
	svc    service.InviteService
}

func newInviteFixture() *inviteFixture {
	repo := &mockInviteRepo{}
	projects := &mockProjectDirectory{projects: map[string]*domain.Project{"p1": testProject("p1")}}
	m := &mockMailer{}
	bus := &mockPublisher{}

	cfg := &config.Config{}
	cfg.Email.JoinBaseURL = "https://app.example.com"

	return &inviteFixture{
		repo:   repo,
		mailer: m,
		bus:    bus,
		svc:    service.NewInviteService(repo, projects, m, bus, cfg),
	}
}

func TestCreateInvite(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	invite, err := f.svc.Create(ctx, "p1", &domain.CreateInviteRequest{
		InvitedBy:  "host-1",
		GuestEmail: " Guest@Example.COM ",
	})
	require.NoError(t, err)
	require.Equal(t, "guest@example.com", invite.GuestEmail)
	require.Equal(t, "CODE-p1", invite.ProjectAccessCode)

	require.Equal(t, []string{"guest@example.com"}, f.mailer.invites)
	require.Len(t, f.bus.bySubject(events.GuestInviteCreated), 1)
}

func TestCreateInviteUnknownProject(t *testing.T) {
	f := newInviteFixture()

	_, err := f.svc.Create(context.Background(), "gone", &domain.CreateInviteRequest{
		InvitedBy:  "host-1",
		GuestEmail: "guest@example.com",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateInviteInvalidEmail(t *testing.T) {
	f := newInviteFixture()

	_, err := f.svc.Create(context.Background(), "p1", &domain.CreateInviteRequest{
		InvitedBy:  "host-1",
		GuestEmail: "not-an-email",
	})
	require.Error(t, err)
}

func TestCreateInviteMailFailure(t *testing.T) {
	f := newInviteFixture()
	f.mailer.sendErr = fmt.Errorf("smtp connection refused")

	// The invite is persisted even when the email cannot be delivered; the
	// access code can still be shared out of band.
	invite, err := f.svc.Create(context.Background(), "p1", &domain.CreateInviteRequest{
		InvitedBy:  "host-1",
		GuestEmail: "guest@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, invite)

	stored, err := f.svc.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}
