package service

import (
	"context"

	"propval/internal/domain"
	"propval/internal/port"
)

// UpdateClientInput is the DTO for updating the caller's client profile.
// Nil fields are left as-is.
type UpdateClientInput struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// ClientService exposes the caller's own client (tenant) profile. Client
// provisioning itself happens out-of-band via the seed tooling.
type ClientService interface {
	Get(ctx context.Context, clientID string) (*domain.Client, error)
	Update(ctx context.Context, clientID string, input UpdateClientInput) (*domain.Client, error)
}

type clientService struct {
	repo port.ClientRepository
}

// NewClientService creates a new ClientService implementation.
func NewClientService(repo port.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) Get(ctx context.Context, clientID string) (*domain.Client, error) {
	return s.repo.GetByID(ctx, clientID)
}

func (s *clientService) Update(ctx context.Context, clientID string, input UpdateClientInput) (*domain.Client, error) {
	client, err := s.repo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}
