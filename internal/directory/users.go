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

// UserDirectory is the user registry collaborator. GetByUsername returns
// (nil, nil) when no account matches.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type httpUserDirectory struct {
	baseURL string
	client  *http.Client
}

func NewUserDirectory(baseURL string, timeout time.Duration) UserDirectory {
	return &httpUserDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *httpUserDirectory) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	endpoint := fmt.Sprintf("%s/users/by-username/%s", d.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var u domain.User
		if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		return &u, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("user registry returned %d", resp.StatusCode)
	}
}
