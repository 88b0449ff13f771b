package service

import (
	"context"

	"github.com/diagnosis/guestlobby/internal/directory"
	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/pkg/logger"
)

// VerifyService decides whether a username may enter a project as a guest.
// It never returns an error: collaborator faults map to VerifyFailed. The
// caller validates the username shape before invoking.
type VerifyService interface {
	VerifyGuest(ctx context.Context, username string, ref domain.ProjectRef) domain.VerifyGuestResult
}

type verifyService struct {
	projects directory.ProjectDirectory
	users    directory.UserDirectory
}

func NewVerifyService(projects directory.ProjectDirectory, users directory.UserDirectory) VerifyService {
	return &verifyService{projects: projects, users: users}
}

// VerifyGuest applies the admission rules in precedence order; the first
// matching rule wins.
func (s *verifyService) VerifyGuest(ctx context.Context, username string, ref domain.ProjectRef) domain.VerifyGuestResult {
	project, err := s.resolveProject(ctx, ref)
	if err != nil {
		logger.ErrorContext(ctx, "Project lookup failed during guest verification",
			"error", err, "project_id", ref.ProjectID)
		return domain.VerifyGuestResult{Code: domain.VerifyFailed}
	}
	if project == nil {
		return domain.VerifyGuestResult{Code: domain.VerifyInvalidCode}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		logger.ErrorContext(ctx, "User lookup failed during guest verification",
			"error", err, "username", username)
		return domain.VerifyGuestResult{Code: domain.VerifyFailed}
	}
	if user == nil {
		// New guest without a durable account; eligible for creation.
		return domain.VerifyGuestResult{Code: domain.VerifySuccessNoUser, Project: project}
	}

	// The lock check precedes the email-verification check.
	if user.IsLocked {
		return domain.VerifyGuestResult{Code: domain.VerifyUserIsLocked}
	}
	if !user.IsEmailVerified {
		return domain.VerifyGuestResult{Code: domain.VerifyEmailVerificationNeeded}
	}

	// A full member of the project's owning tenant enters through the
	// member door, not the guest lobby.
	if user.OrgID != "" && user.OrgID == project.OrgID {
		return domain.VerifyGuestResult{Code: domain.VerifyInvalidNotGuest}
	}

	return domain.VerifyGuestResult{
		Code:      domain.VerifySuccess,
		AccountID: user.AccountID,
		UserID:    user.ID,
		Project:   project,
	}
}

func (s *verifyService) resolveProject(ctx context.Context, ref domain.ProjectRef) (*domain.Project, error) {
	if ref.ProjectID != "" {
		project, err := s.projects.GetByID(ctx, ref.ProjectID)
		if err != nil {
			return nil, err
		}
		if project != nil {
			return project, nil
		}
	}
	if ref.AccessCode != "" {
		return s.projects.GetByAccessCode(ctx, ref.AccessCode)
	}
	return nil, nil
}
