// Package users manages principal records and their agent assignments.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/memhive/memhive/internal/access"
	"github.com/memhive/memhive/internal/catalog"
	"github.com/memhive/memhive/internal/identity"
)

// Service handles principal business logic. Every assignment mutation
// invalidates the principal's cached access decisions; skipping that step
// would let stale grants outlive a revocation.
type Service struct {
	repo    Repository
	cache   *access.DecisionCache
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *access.DecisionCache, cat *catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, catalog: cat, logger: logger}
}

// Register creates a principal with the default assignment set for its role.
func (s *Service) Register(ctx context.Context, username, email, password string, role identity.Role) (*identity.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("users: username required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &identity.Principal{
		ID:          uuid.NewString(),
		Username:    username,
		Email:       strings.TrimSpace(email),
		Role:        role,
		IsActive:    true,
		Assignments: identity.DeriveDefaultAssignments(role, s.catalog),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p, string(hash)); err != nil {
		return nil, err
	}
	return p, nil
}

// Get fetches a principal by id.
func (s *Service) Get(ctx context.Context, id string) (*identity.Principal, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername fetches a principal by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*identity.Principal, error) {
	return s.repo.GetByUsername(ctx, username)
}

// List returns all principals.
func (s *Service) List(ctx context.Context) ([]identity.Principal, error) {
	return s.repo.List(ctx)
}

// GrantAssignment adds or replaces one agent assignment on the principal.
func (s *Service) GrantAssignment(ctx context.Context, principalID string, a identity.RoleAssignment, assignedBy string) (*identity.Principal, error) {
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	a.AgentID = catalog.NormalizeAgentID(a.AgentID)
	if a.AgentID == "" {
		return nil, fmt.Errorf("users: agent id required")
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	if a.AssignedBy == "" {
		a.AssignedBy = assignedBy
	}
	p.SetAssignment(a)
	if err := s.persistAssignments(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RevokeAssignment removes the assignment for one agent.
func (s *Service) RevokeAssignment(ctx context.Context, principalID, agentID string) (*identity.Principal, error) {
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !p.RemoveAssignment(agentID) {
		return nil, fmt.Errorf("users: principal %s has no assignment for agent %q", principalID, agentID)
	}
	if err := s.persistAssignments(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReplaceAssignments swaps the whole assignment set.
func (s *Service) ReplaceAssignments(ctx context.Context, principalID string, assignments []identity.RoleAssignment) (*identity.Principal, error) {
	p, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	p.Assignments = nil
	for _, a := range assignments {
		a.AgentID = catalog.NormalizeAgentID(a.AgentID)
		p.SetAssignment(a)
	}
	if err := s.persistAssignments(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate performs the logical delete. Cached decisions for the principal
// are dropped alongside.
func (s *Service) Deactivate(ctx context.Context, principalID string) error {
	if err := s.repo.SetActive(ctx, principalID, false); err != nil {
		return err
	}
	s.invalidate(principalID)
	return nil
}

func (s *Service) persistAssignments(ctx context.Context, p *identity.Principal) error {
	if err := s.repo.ReplaceAssignments(ctx, p.ID, p.Assignments); err != nil {
		return err
	}
	s.invalidate(p.ID)
	return nil
}

func (s *Service) invalidate(principalID string) {
	if s.cache == nil {
		return
	}
	if evicted := s.cache.InvalidatePrincipal(principalID); evicted > 0 {
		s.logger.Debug("decision cache invalidated",
			slog.String("principal", principalID),
			slog.Int("evicted", evicted))
	}
}
