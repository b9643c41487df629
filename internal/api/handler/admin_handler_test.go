package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/RafhaelH/rbac-api/internal/api/middleware"
	"github.com/RafhaelH/rbac-api/internal/core/domain"
	"github.com/RafhaelH/rbac-api/internal/core/ports"
)

type stubUserService struct {
	ports.UserService
	listFn        func(ctx context.Context, f ports.UserFilter) (*ports.ListResult[*domain.User], error)
	updateFn      func(ctx context.Context, id int64, in ports.UserUpdate) (*domain.User, error)
	assignRolesFn func(ctx context.Context, id int64, roleIDs []int64) (*domain.User, error)
}

func (s *stubUserService) List(ctx context.Context, f ports.UserFilter) (*ports.ListResult[*domain.User], error) {
	return s.listFn(ctx, f)
}

func (s *stubUserService) Update(ctx context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) AssignRoles(ctx context.Context, id int64, roleIDs []int64) (*domain.User, error) {
	return s.assignRolesFn(ctx, id, roleIDs)
}

type stubRoleService struct {
	ports.RoleService
	createFn     func(ctx context.Context, in ports.RoleInput) (*domain.Role, error)
	setDefaultFn func(ctx context.Context, id int64) (*domain.Role, error)
}

func (s *stubRoleService) Create(ctx context.Context, in ports.RoleInput) (*domain.Role, error) {
	return s.createFn(ctx, in)
}

func (s *stubRoleService) SetDefault(ctx context.Context, id int64) (*domain.Role, error) {
	return s.setDefaultFn(ctx, id)
}

type stubPermissionService struct {
	ports.PermissionService
	resources []string
	defaults  []*domain.Permission
}

func (s *stubPermissionService) Resources(context.Context) ([]string, error) {
	return s.resources, nil
}

func (s *stubPermissionService) CreateDefaults(context.Context) ([]*domain.Permission, error) {
	return s.defaults, nil
}

func withParams(c echo.Context, names []string, values []string) echo.Context {
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func TestUserHandler_List_Filters(t *testing.T) {
	var got ports.UserFilter
	stub := &stubUserService{
		listFn: func(_ context.Context, f ports.UserFilter) (*ports.ListResult[*domain.User], error) {
			got = f
			return &ports.ListResult[*domain.User]{
				Items: []*domain.User{{ID: 1, Email: "a@example.com"}},
				Total: 41, Page: f.Page.Page, Size: f.Size, Pages: 5,
			}, nil
		},
	}
	c, rec := jsonRequest(newEcho(), http.MethodGet, "/users?page=2&size=10&search=ana&is_active=false", "")

	if err := NewUserHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Page.Page != 2 || got.Size != 10 || got.Search != "ana" || got.IsActive == nil || *got.IsActive {
		t.Fatalf("unexpected filter: %+v", got)
	}

	var resp pageResponse[userResponse]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 41 || resp.Pages != 5 || len(resp.Items) != 1 || resp.Items[0].FullName != "a@example.com" {
		t.Fatalf("unexpected page: %+v", resp)
	}
}

func TestUserHandler_List_BadQuery(t *testing.T) {
	for _, q := range []string{"page=0", "size=101", "size=abc", "is_active=maybe"} {
		c, _ := jsonRequest(newEcho(), http.MethodGet, "/users?"+q, "")

		err := NewUserHandler(&stubUserService{}).List(c)
		if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", q, code)
		}
	}
}

func TestUserHandler_Update_AdminKeepsFlags(t *testing.T) {
	var got ports.UserUpdate
	stub := &stubUserService{
		updateFn: func(_ context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
			got = in
			return &domain.User{ID: id}, nil
		},
	}
	c, _ := jsonRequest(newEcho(), http.MethodPut, "/users/7", `{"is_active":false,"first_name":"Bo"}`)
	withParams(c, []string{"id"}, []string{"7"})
	middleware.SetPrincipal(c, &domain.User{ID: 1, IsActive: true, Roles: []domain.Role{{
		IsActive:    true,
		Permissions: []domain.Permission{{Resource: "users", Action: "write", IsActive: true}},
	}}})

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.IsActive == nil || *got.IsActive || got.FirstName == nil || *got.FirstName != "Bo" {
		t.Fatalf("flags dropped for admin update: %+v", got)
	}
}

func TestUserHandler_Update_WriterCannotGrantSuperuser(t *testing.T) {
	var got ports.UserUpdate
	stub := &stubUserService{
		updateFn: func(_ context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
			got = in
			return &domain.User{ID: id}, nil
		},
	}
	c, _ := jsonRequest(newEcho(), http.MethodPut, "/users/1", `{"is_superuser":true,"is_active":true}`)
	withParams(c, []string{"id"}, []string{"1"})
	middleware.SetPrincipal(c, &domain.User{ID: 1, IsActive: true, Roles: []domain.Role{{
		IsActive:    true,
		Permissions: []domain.Permission{{Resource: "users", Action: "write", IsActive: true}},
	}}})

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.IsSuperuser != nil {
		t.Fatalf("superuser flag passed through for a non-superuser: %+v", got)
	}
	if got.IsActive == nil || !*got.IsActive {
		t.Fatalf("other admin flags should survive: %+v", got)
	}
}

func TestUserHandler_Update_SuperuserGrantsSuperuser(t *testing.T) {
	var got ports.UserUpdate
	stub := &stubUserService{
		updateFn: func(_ context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
			got = in
			return &domain.User{ID: id}, nil
		},
	}
	c, _ := jsonRequest(newEcho(), http.MethodPut, "/users/7", `{"is_superuser":true}`)
	withParams(c, []string{"id"}, []string{"7"})
	middleware.SetPrincipal(c, &domain.User{ID: 1, IsSuperuser: true, IsActive: true})

	if err := NewUserHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.IsSuperuser == nil || !*got.IsSuperuser {
		t.Fatalf("expected superuser flag forwarded: %+v", got)
	}
}

func TestUserHandler_Update_InvalidID(t *testing.T) {
	c, _ := jsonRequest(newEcho(), http.MethodPut, "/users/x", `{}`)
	withParams(c, []string{"id"}, []string{"x"})
	middleware.SetPrincipal(c, &domain.User{ID: 1, IsSuperuser: true, IsActive: true})

	err := NewUserHandler(&stubUserService{}).Update(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestUserHandler_AssignRoles(t *testing.T) {
	stub := &stubUserService{
		assignRolesFn: func(_ context.Context, id int64, roleIDs []int64) (*domain.User, error) {
			if id != 3 || len(roleIDs) != 2 {
				t.Fatalf("unexpected args: %d %v", id, roleIDs)
			}
			return &domain.User{ID: 3, Roles: []domain.Role{{ID: 1}, {ID: 2}}}, nil
		},
	}
	c, rec := jsonRequest(newEcho(), http.MethodPost, "/users/3/roles", `{"role_ids":[1,2]}`)
	withParams(c, []string{"id"}, []string{"3"})

	if err := NewUserHandler(stub).AssignRoles(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(resp.Roles))
	}
}

func TestUserHandler_AssignRoles_MissingField(t *testing.T) {
	c, _ := jsonRequest(newEcho(), http.MethodPost, "/users/3/roles", `{}`)
	withParams(c, []string{"id"}, []string{"3"})

	err := NewUserHandler(&stubUserService{}).AssignRoles(c)
	if code := httpCode(t, err); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestMeHandler_Update_IgnoresFlags(t *testing.T) {
	var gotID int64
	var got ports.UserUpdate
	stub := &stubUserService{
		updateFn: func(_ context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
			gotID, got = id, in
			return &domain.User{ID: id}, nil
		},
	}
	c, _ := jsonRequest(newEcho(), http.MethodPut, "/me", `{"bio":"hi","is_superuser":true,"is_verified":true}`)
	middleware.SetPrincipal(c, &domain.User{ID: 9, IsActive: true})

	if err := NewMeHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotID != 9 || got.Bio == nil || *got.Bio != "hi" {
		t.Fatalf("unexpected update: id=%d %+v", gotID, got)
	}
	if got.IsSuperuser != nil || got.IsVerified != nil || got.IsActive != nil {
		t.Fatalf("account flags leaked into self update: %+v", got)
	}
}

func TestRoleHandler_Create_DefaultsActive(t *testing.T) {
	var got ports.RoleInput
	stub := &stubRoleService{
		createFn: func(_ context.Context, in ports.RoleInput) (*domain.Role, error) {
			got = in
			return &domain.Role{ID: 4, Name: in.Name, IsActive: in.IsActive}, nil
		},
	}
	c, rec := jsonRequest(newEcho(), http.MethodPost, "/roles", `{"name":"editor"}`)

	if err := NewRoleHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !got.IsActive || got.IsDefault {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestRoleHandler_SetDefault_NotFound(t *testing.T) {
	stub := &stubRoleService{
		setDefaultFn: func(context.Context, int64) (*domain.Role, error) {
			return nil, domain.ErrRoleNotFound
		},
	}
	c, _ := jsonRequest(newEcho(), http.MethodPost, "/roles/99/set-default", "")
	withParams(c, []string{"id"}, []string{"99"})

	if err := NewRoleHandler(stub).SetDefault(c); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRoleHandler_AddPermission_BadPermissionID(t *testing.T) {
	c, _ := jsonRequest(newEcho(), http.MethodPost, "/roles/1/permissions/0", "")
	withParams(c, []string{"id", "permission_id"}, []string{"1", "0"})

	err := NewRoleHandler(&stubRoleService{}).AddPermission(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestPermissionHandler_Resources(t *testing.T) {
	stub := &stubPermissionService{resources: []string{"permissions", "roles", "users"}}
	c, rec := jsonRequest(newEcho(), http.MethodGet, "/permissions/resources", "")

	if err := NewPermissionHandler(stub).Resources(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp["resources"]) != 3 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestPermissionHandler_CreateDefaults_Empty(t *testing.T) {
	c, rec := jsonRequest(newEcho(), http.MethodPost, "/permissions/create-defaults", "")

	if err := NewPermissionHandler(&stubPermissionService{}).CreateDefaults(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "{\"created\":[]}\n" {
		t.Fatalf("expected empty created list, got %s", body)
	}
}

func TestValidatePassword(t *testing.T) {
	v := NewValidator()
	type pw struct {
		Password string `json:"password" validate:"password"`
	}
	cases := map[string]bool{
		"Abcdefg1":   true,
		"Ünïcode9x":  true,
		"Abc1":       false,
		"abcdefgh1":  false,
		"ABCDEFGH1":  false,
		"Abcdefghij": false,
	}
	for in, want := range cases {
		err := v.Validate(pw{Password: in})
		if (err == nil) != want {
			t.Errorf("%q: want valid=%v, got err=%v", in, want, err)
		}
	}
}

func TestValidator_MessagesUseJSONNames(t *testing.T) {
	err := NewValidator().Validate(loginRequest{Email: "bad"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := "email must be a valid email; password is required"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestPageParams_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	p, err := pageParams(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page != 1 || p.Size != defaultPageSize {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}
