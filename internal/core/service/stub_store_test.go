package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

// memStore is an in-memory relational store. Users are assembled with their
// current roles and permissions on every read, like the SQL repositories.
type memStore struct {
	mu     sync.Mutex
	nextID int64

	users     map[int64]*domain.User
	userRoles map[int64][]int64
	roles     map[int64]*domain.Role
	rolePerms map[int64][]int64
	perms     map[int64]*domain.Permission

	touched chan int64
	findErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*domain.User),
		userRoles: make(map[int64][]int64),
		roles:     make(map[int64]*domain.Role),
		rolePerms: make(map[int64][]int64),
		perms:     make(map[int64]*domain.Permission),
		touched:   make(chan int64, 16),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) roleWithPerms(id int64) domain.Role {
	r := *m.roles[id]
	r.Permissions = []domain.Permission{}
	for _, pid := range m.rolePerms[id] {
		r.Permissions = append(r.Permissions, *m.perms[pid])
	}
	return r
}

func (m *memStore) assembleUser(id int64) *domain.User {
	u := *m.users[id]
	u.Roles = []domain.Role{}
	for _, rid := range m.userRoles[id] {
		u.Roles = append(u.Roles, m.roleWithPerms(rid))
	}
	return &u
}

func without(ids []int64, drop int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ── users ─────────────────────────────────────────────────────────────────────

type memUserRepo struct{ *memStore }

func (r memUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if _, ok := r.users[id]; !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.assembleUser(id), nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for id, u := range r.users {
		if u.Email == email {
			return r.assembleUser(id), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	user.ID = r.id()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Roles = nil
	r.users[user.ID] = &stored
	return nil
}

func (r memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	stored := *user
	stored.Roles = nil
	r.users[user.ID] = &stored
	return nil
}

func (r memUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r memUserRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	u, ok := r.users[id]
	if ok {
		u.LastLogin = &at
	}
	r.mu.Unlock()
	if !ok {
		return domain.ErrUserNotFound
	}
	select {
	case r.touched <- id:
	default:
	}
	return nil
}

func (r memUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, u := range r.users {
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(u.Email, f.Search) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := int64(len(ids))
	out := []*domain.User{}
	for i := f.Offset(); i < len(ids) && len(out) < f.Size; i++ {
		out = append(out, r.assembleUser(ids[i]))
	}
	return out, total, nil
}

func (r memUserRepo) AddRole(_ context.Context, userID, roleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !contains(r.userRoles[userID], roleID) {
		r.userRoles[userID] = append(r.userRoles[userID], roleID)
	}
	return nil
}

func (r memUserRepo) RemoveRole(_ context.Context, userID, roleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userRoles[userID] = without(r.userRoles[userID], roleID)
	return nil
}

func (r memUserRepo) ReplaceRoles(_ context.Context, userID int64, roleIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userRoles[userID] = append([]int64(nil), roleIDs...)
	return nil
}

// ── roles ─────────────────────────────────────────────────────────────────────

type memRoleRepo struct{ *memStore }

func (r memRoleRepo) FindByID(_ context.Context, id int64) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	role := r.roleWithPerms(id)
	return &role, nil
}

func (r memRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, role := range r.roles {
		if role.Name == name {
			out := r.roleWithPerms(id)
			return &out, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r memRoleRepo) FindDefault(_ context.Context) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, role := range r.roles {
		if role.IsDefault {
			out := r.roleWithPerms(id)
			return &out, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r memRoleRepo) Create(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role.ID = r.id()
	stored := *role
	stored.Permissions = nil
	r.roles[role.ID] = &stored
	return nil
}

func (r memRoleRepo) Update(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.roles[role.ID]
	if !ok {
		return domain.ErrRoleNotFound
	}
	stored := *role
	stored.Permissions = nil
	stored.IsDefault = current.IsDefault
	r.roles[role.ID] = &stored
	return nil
}

func (r memRoleRepo) List(_ context.Context, f ports.RoleFilter) ([]*domain.Role, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Role
	for id, role := range r.roles {
		if f.IsActive != nil && role.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(role.Name, f.Search) {
			continue
		}
		rp := r.roleWithPerms(id)
		out = append(out, &rp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r memRoleRepo) SetDefault(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	for _, role := range r.roles {
		role.IsDefault = false
	}
	r.roles[id].IsDefault = true
	return nil
}

func (r memRoleRepo) ClearDefault(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return domain.ErrRoleNotFound
	}
	role.IsDefault = false
	return nil
}

func (r memRoleRepo) AddPermission(_ context.Context, roleID, permissionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !contains(r.rolePerms[roleID], permissionID) {
		r.rolePerms[roleID] = append(r.rolePerms[roleID], permissionID)
	}
	return nil
}

func (r memRoleRepo) RemovePermission(_ context.Context, roleID, permissionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolePerms[roleID] = without(r.rolePerms[roleID], permissionID)
	return nil
}

func (r memRoleRepo) ReplacePermissions(_ context.Context, roleID int64, permissionIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolePerms[roleID] = append([]int64(nil), permissionIDs...)
	return nil
}

// ── permissions ───────────────────────────────────────────────────────────────

type memPermissionRepo struct{ *memStore }

func (r memPermissionRepo) FindByID(_ context.Context, id int64) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.perms[id]
	if !ok {
		return nil, domain.ErrPermissionNotFound
	}
	out := *p
	return &out, nil
}

func (r memPermissionRepo) FindByName(_ context.Context, name string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.perms {
		if p.Name == name {
			out := *p
			return &out, nil
		}
	}
	return nil, domain.ErrPermissionNotFound
}

func (r memPermissionRepo) FindByResourceAction(_ context.Context, resource, action string) (*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.perms {
		if p.Resource == resource && p.Action == action {
			out := *p
			return &out, nil
		}
	}
	return nil, domain.ErrPermissionNotFound
}

func (r memPermissionRepo) Create(_ context.Context, p *domain.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.id()
	stored := *p
	r.perms[p.ID] = &stored
	return nil
}

func (r memPermissionRepo) Update(_ context.Context, p *domain.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.perms[p.ID]; !ok {
		return domain.ErrPermissionNotFound
	}
	stored := *p
	r.perms[p.ID] = &stored
	return nil
}

func (r memPermissionRepo) List(_ context.Context, f ports.PermissionFilter) ([]*domain.Permission, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Permission
	for _, p := range r.perms {
		if f.Resource != "" && p.Resource != f.Resource {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r memPermissionRepo) distinct(field func(*domain.Permission) string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	for _, p := range r.perms {
		seen[field(p)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r memPermissionRepo) Resources(context.Context) ([]string, error) {
	return r.distinct(func(p *domain.Permission) string { return p.Resource }), nil
}

func (r memPermissionRepo) Actions(context.Context) ([]string, error) {
	return r.distinct(func(p *domain.Permission) string { return p.Action }), nil
}

// ── seeding helpers ───────────────────────────────────────────────────────────

func (m *memStore) seedPermission(resource, action string, active bool) *domain.Permission {
	p := &domain.Permission{Name: resource + ":" + action, Resource: resource, Action: action, IsActive: active}
	_ = memPermissionRepo{m}.Create(context.Background(), p)
	return p
}

func (m *memStore) seedRole(name string, active bool, perms ...*domain.Permission) *domain.Role {
	r := &domain.Role{Name: name, IsActive: active}
	_ = memRoleRepo{m}.Create(context.Background(), r)
	for _, p := range perms {
		_ = memRoleRepo{m}.AddPermission(context.Background(), r.ID, p.ID)
	}
	return r
}
