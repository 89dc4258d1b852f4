package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type ClientService interface {
	// Register creates a client with a freshly generated auth token. The
	// name must be unused.
	Register(ctx context.Context, name string) (*types.Client, error)
	List(ctx context.Context) ([]*types.Client, error)
	Delete(ctx context.Context, name string) error
	// Authenticate reports whether the given auth token belongs to a
	// registered client.
	Authenticate(ctx context.Context, authToken string) (bool, error)
}

type clientService struct {
	db  *gorm.DB
	log *logger.Logger

	clients repos.ClientRepo
}

func NewClientService(db *gorm.DB, baseLog *logger.Logger, clients repos.ClientRepo) ClientService {
	return &clientService{
		db:      db,
		log:     baseLog.With("service", "ClientService"),
		clients: clients,
	}
}

func (s *clientService) Register(ctx context.Context, name string) (*types.Client, error) {
	if name == "" {
		return nil, apierr.Validation("missing required 'name' parameter")
	}

	var client *types.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.clients.GetByName(ctx, tx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.Conflict("a client named %q already exists", name)
		}

		client = &types.Client{
			Name:      name,
			AuthToken: strings.ReplaceAll(uuid.NewString(), "-", ""),
		}
		return s.clients.Create(ctx, tx, client)
	})
	if err != nil {
		return nil, storageErr(err)
	}

	s.log.Info("client registered", "name", name)
	return client, nil
}

func (s *clientService) List(ctx context.Context) ([]*types.Client, error) {
	clients, err := s.clients.List(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	return clients, nil
}

func (s *clientService) Delete(ctx context.Context, name string) error {
	affected, err := s.clients.DeleteByName(ctx, nil, name)
	if err != nil {
		return storageErr(err)
	}
	if affected == 0 {
		return apierr.NotFound("no such client")
	}
	s.log.Info("client deleted", "name", name)
	return nil
}

func (s *clientService) Authenticate(ctx context.Context, authToken string) (bool, error) {
	if authToken == "" {
		return false, nil
	}
	ok, err := s.clients.TokenExists(ctx, nil, authToken)
	if err != nil {
		return false, storageErr(err)
	}
	return ok, nil
}
