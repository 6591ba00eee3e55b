package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Contact is a name+address pair from the external contact directory.
// Directory-sourced recipients flow through the same list update path as
// manually entered ones.
type Contact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ContactDirectory is the external contact directory collaborator.
type ContactDirectory interface {
	ListContacts(ctx context.Context, owner string) ([]Contact, error)
}

// HTTPContactDirectory reads contacts from the directory service over HTTP.
type HTTPContactDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPContactDirectory(baseURL string) *HTTPContactDirectory {
	return &HTTPContactDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *HTTPContactDirectory) ListContacts(ctx context.Context, owner string) ([]Contact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/contacts?owner="+url.QueryEscape(owner), nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("contact directory returned %d", resp.StatusCode)
	}
	var contacts []Contact
	if err := json.NewDecoder(resp.Body).Decode(&contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}
