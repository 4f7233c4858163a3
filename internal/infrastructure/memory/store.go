// Package memory implements the repository interfaces in process memory.
// It enforces the same uniqueness and cascade rules as the PostgreSQL schema
// and is used for local runs without a database and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

type pair struct{ userID, roleID string }

// Store holds users, roles and assignments behind one lock.
type Store struct {
	mu          sync.RWMutex
	users       map[string]entity.User
	roles       map[string]entity.Role
	assignments map[pair]time.Time

	// Err, when set, is returned by every operation. Used to simulate an outage.
	Err error
}

func NewStore() *Store {
	return &Store{
		users:       map[string]entity.User{},
		roles:       map[string]entity.Role{},
		assignments: map[pair]time.Time{},
	}
}

// Users, Roles and UserRoles expose the store through the repository interfaces.
func (s *Store) Users() *UserRepository         { return &UserRepository{s} }
func (s *Store) Roles() *RoleRepository         { return &RoleRepository{s} }
func (s *Store) UserRoles() *UserRoleRepository { return &UserRoleRepository{s} }

// AssignmentCount returns the number of stored (user, role) rows.
func (s *Store) AssignmentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assignments)
}

func cloneRole(r entity.Role) *entity.Role {
	r.Permissions = r.Permissions.Clone()
	return &r
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	stored.Roles = nil
	s.users[u.ID] = stored
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) List(_ context.Context, f repository.UserListFilter) ([]*entity.User, int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var all []*entity.User
	for _, u := range s.users {
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		u := u
		for p := range s.assignments {
			if p.userID == u.ID {
				u.Roles = append(u.Roles, *cloneRole(s.roles[p.roleID]))
			}
		}
		sort.Slice(u.Roles, func(i, j int) bool { return u.Roles[i].Name < u.Roles[j].Name })
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return all[f.Offset:end], total, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now()
	stored := *u
	stored.Roles = nil
	s.users[u.ID] = stored
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	for p := range s.assignments {
		if p.userID == id {
			delete(s.assignments, p)
		}
	}
	return nil
}

type RoleRepository struct{ s *Store }

func (r *RoleRepository) Create(_ context.Context, role *entity.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	role.ID = uuid.NewString()
	role.CreatedAt, role.UpdatedAt = now, now
	if role.Permissions == nil {
		role.Permissions = entity.NewPermissionSet()
	}
	s.roles[role.ID] = *cloneRole(*role)
	return nil
}

func (r *RoleRepository) GetByID(_ context.Context, id string) (*entity.Role, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	role, ok := s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRole(role), nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*entity.Role, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, role := range s.roles {
		if role.Name == name {
			return cloneRole(role), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *RoleRepository) List(_ context.Context) ([]*entity.Role, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*entity.Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, cloneRole(role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *RoleRepository) Update(_ context.Context, role *entity.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.roles {
		if id != role.ID && existing.Name == role.Name {
			return repository.ErrDuplicate
		}
	}
	role.UpdatedAt = time.Now()
	s.roles[role.ID] = *cloneRole(*role)
	return nil
}

func (r *RoleRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.roles, id)
	for p := range s.assignments {
		if p.roleID == id {
			delete(s.assignments, p)
		}
	}
	return nil
}

type UserRoleRepository struct{ s *Store }

func (r *UserRoleRepository) Assign(_ context.Context, userID, roleID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	key := pair{userID, roleID}
	if _, ok := s.assignments[key]; ok {
		return repository.ErrDuplicate
	}
	s.assignments[key] = time.Now()
	return nil
}

func (r *UserRoleRepository) Remove(_ context.Context, userID, roleID string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	key := pair{userID, roleID}
	if _, ok := s.assignments[key]; !ok {
		return 0, nil
	}
	delete(s.assignments, key)
	return 1, nil
}

func (r *UserRoleRepository) RolesOfUser(_ context.Context, userID string) ([]*entity.Role, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*entity.Role
	for p := range s.assignments {
		if p.userID == userID {
			out = append(out, cloneRole(s.roles[p.roleID]))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *UserRoleRepository) HasRoleNamed(_ context.Context, userID, roleName string) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return false, s.Err
	}
	for p := range s.assignments {
		if p.userID == userID && s.roles[p.roleID].Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.RoleRepository     = (*RoleRepository)(nil)
	_ repository.UserRoleRepository = (*UserRoleRepository)(nil)
)
