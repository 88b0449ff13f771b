package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
)

// ---------- Mocks ----------

type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.GuestSession
	endErr   map[string]error // induced per-session End failures
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*domain.GuestSession),
		endErr:   make(map[string]error),
	}
}

func (m *mockSessionRepo) put(s *domain.GuestSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
}

func (m *mockSessionRepo) Create(_ context.Context, s *domain.GuestSession) error {
	m.put(s)
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*domain.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) ListByProject(_ context.Context, projectID string) ([]domain.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GuestSession
	for _, s := range m.sessions {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) ListActiveByProject(_ context.Context, projectID string) ([]domain.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GuestSession
	for _, s := range m.sessions {
		if s.ProjectID == projectID && s.State != domain.SessionEnded {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) FindActive(_ context.Context, userID, email, projectID string) (*domain.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ProjectID != projectID || s.State == domain.SessionEnded {
			continue
		}
		if (userID != "" && s.UserID == userID) || s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockSessionRepo) CountActiveByProject(_ context.Context, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.ProjectID == projectID && s.State != domain.SessionEnded {
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) Grant(_ context.Context, id, grantedBy string, at time.Time) (*domain.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.State != domain.SessionInLobby {
		return nil, nil
	}
	s.State = domain.SessionInProject
	s.AccessGrantedBy = &grantedBy
	s.AccessGrantedAt = &at
	s.LastAccessAt = at
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) End(_ context.Context, id, revokedBy string, at time.Time) (*domain.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.endErr[id]; err != nil {
		return nil, err
	}
	s, ok := m.sessions[id]
	if !ok || s.State == domain.SessionEnded {
		return nil, nil
	}
	s.State = domain.SessionEnded
	s.AccessRevokedBy = &revokedBy
	s.AccessRevokedAt = &at
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) TouchLastAccess(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.LastAccessAt = at
	}
	return nil
}

func (m *mockSessionRepo) ClaimHostEmail(_ context.Context, id string, now time.Time, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if s.EmailedHostAt != nil && s.EmailedHostAt.After(now.Add(-window)) {
		return false, nil
	}
	t := now
	s.EmailedHostAt = &t
	return true, nil
}

func (m *mockSessionRepo) ReleaseHostEmail(_ context.Context, id string, previous *time.Time, claimed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if s.EmailedHostAt != nil && s.EmailedHostAt.Equal(claimed) {
		s.EmailedHostAt = previous
	}
	return nil
}

func (m *mockSessionRepo) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ProjectID == projectID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type mockInviteRepo struct {
	mu      sync.Mutex
	invites []domain.GuestInvite
}

func (m *mockInviteRepo) Create(_ context.Context, inv *domain.GuestInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites = append(m.invites, *inv)
	return nil
}

func (m *mockInviteRepo) ListByProject(_ context.Context, projectID string) ([]domain.GuestInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GuestInvite
	for _, inv := range m.invites {
		if inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInviteRepo) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.GuestInvite
	var n int64
	for _, inv := range m.invites {
		if inv.ProjectID == projectID {
			n++
			continue
		}
		kept = append(kept, inv)
	}
	m.invites = kept
	return n, nil
}

type mockLobbyRepo struct {
	mu     sync.Mutex
	states map[string]*domain.ProjectLobbyState
	writes int
	getErr error
	setErr error
}

func newMockLobbyRepo() *mockLobbyRepo {
	return &mockLobbyRepo{states: make(map[string]*domain.ProjectLobbyState)}
}

func (m *mockLobbyRepo) Get(_ context.Context, projectID string) (*domain.ProjectLobbyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.states[projectID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockLobbyRepo) Create(_ context.Context, projectID string, state domain.LobbyState, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[projectID]; ok {
		return nil
	}
	m.states[projectID] = &domain.ProjectLobbyState{ProjectID: projectID, State: state, UpdatedAt: at}
	return nil
}

func (m *mockLobbyRepo) SetStateIfChanged(_ context.Context, projectID string, state domain.LobbyState, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return false, m.setErr
	}
	s, ok := m.states[projectID]
	if !ok || s.State == state {
		return false, nil
	}
	s.State = state
	s.UpdatedAt = at
	m.writes++
	return true, nil
}

func (m *mockLobbyRepo) Delete(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, projectID)
	return nil
}

type mockProjectDirectory struct {
	projects map[string]*domain.Project
	err      error
}

func (m *mockProjectDirectory) GetByID(_ context.Context, id string) (*domain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.projects[id], nil
}

func (m *mockProjectDirectory) GetByAccessCode(_ context.Context, code string) (*domain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.projects {
		if p.AccessCode == code {
			return p, nil
		}
	}
	return nil, nil
}

type mockUserDirectory struct {
	users map[string]*domain.User
	err   error
}

func (m *mockUserDirectory) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[username], nil
}

type mockPresence struct {
	participants int
	hostPresent  bool
	countErr     error
	hostErr      error
}

func (m *mockPresence) CountActiveParticipants(_ context.Context, _ string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.participants, nil
}

func (m *mockPresence) IsHostPresent(_ context.Context, _ string) (bool, error) {
	if m.hostErr != nil {
		return false, m.hostErr
	}
	return m.hostPresent, nil
}

type publishedEvent struct {
	Subject string
	Data    interface{}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{Subject: subject, Data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) bySubject(subject string) []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedEvent
	for _, e := range m.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out
}

type mockMailer struct {
	mu         sync.Mutex
	hostEmails []string
	invites    []string
	sendErr    error
}

func (m *mockMailer) SendGuestInviteEmail(toEmail, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.invites = append(m.invites, toEmail)
	return nil
}

func (m *mockMailer) SendHostLobbyEmail(toEmail, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.hostEmails = append(m.hostEmails, toEmail)
	return nil
}

func (m *mockMailer) hostEmailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hostEmails)
}

// testProject returns a project fixture usable across tests.
func testProject(id string) *domain.Project {
	return &domain.Project{
		ID:         id,
		OrgID:      "org-1",
		Name:       fmt.Sprintf("Project %s", id),
		AccessCode: "CODE-" + id,
		HostEmail:  "host@example.com",
		MaxGuests:  5,
		CreatedAt:  time.Now(),
	}
}
