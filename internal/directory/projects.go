package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
)

// ProjectDirectory is the project registry collaborator. Lookups return
// (nil, nil) when the project does not exist; errors are transport or
// decode faults only.
type ProjectDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByAccessCode(ctx context.Context, code string) (*domain.Project, error)
}

type httpProjectDirectory struct {
	baseURL string
	client  *http.Client
}

func NewProjectDirectory(baseURL string, timeout time.Duration) ProjectDirectory {
	return &httpProjectDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *httpProjectDirectory) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	endpoint := fmt.Sprintf("%s/projects/%s", d.baseURL, url.PathEscape(id))
	return d.fetch(ctx, endpoint)
}

func (d *httpProjectDirectory) GetByAccessCode(ctx context.Context, code string) (*domain.Project, error) {
	endpoint := fmt.Sprintf("%s/projects/by-access-code/%s", d.baseURL, url.PathEscape(code))
	return d.fetch(ctx, endpoint)
}

func (d *httpProjectDirectory) fetch(ctx context.Context, endpoint string) (*domain.Project, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("project registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var p domain.Project
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode project: %w", err)
		}
		return &p, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("project registry returned %d", resp.StatusCode)
	}
}
