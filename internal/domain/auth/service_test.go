package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type userStore struct {
	users       map[id.ID]*User
	assignments map[id.ID][]id.ID // userID -> roleIDs
	roles       map[id.ID]*Role
	perms       map[id.ID][]string // roleID -> permission codes
}

func newUserStore() *userStore {
	return &userStore{
		users:       make(map[id.ID]*User),
		assignments: make(map[id.ID][]id.ID),
		roles:       make(map[id.ID]*Role),
		perms:       make(map[id.ID][]string),
	}
}

func (s *userStore) Create(_ context.Context, user *User) error {
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStore) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (s *userStore) Update(_ context.Context, user *User) error {
	if _, ok := s.users[user.ID]; !ok {
		return apperror.NewNotFound("user", user.ID)
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStore) Delete(_ context.Context, userID id.ID) error {
	delete(s.users, userID)
	return nil
}

func (s *userStore) List(_ context.Context, filter UserFilter) ([]User, int, error) {
	var out []User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *userStore) ListByRole(_ context.Context, roleCode string) ([]User, error) {
	var out []User
	for userID, roleIDs := range s.assignments {
		for _, rid := range roleIDs {
			if r, ok := s.roles[rid]; ok && r.Code == roleCode {
				if u, ok := s.users[userID]; ok && u.IsActive {
					out = append(out, *u)
				}
			}
		}
	}
	return out, nil
}

func (s *userStore) LoadRoles(_ context.Context, userID id.ID) ([]Role, error) {
	var out []Role
	for _, rid := range s.assignments[userID] {
		if r, ok := s.roles[rid]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *userStore) LoadPermissions(_ context.Context, userID id.ID) ([]string, error) {
	var out []string
	for _, rid := range s.assignments[userID] {
		out = append(out, s.perms[rid]...)
	}
	return out, nil
}

func (s *userStore) AssignRole(_ context.Context, userID, roleID id.ID, _ id.ID) error {
	s.assignments[userID] = append(s.assignments[userID], roleID)
	return nil
}

func (s *userStore) RevokeRole(_ context.Context, userID, roleID id.ID) error {
	kept := s.assignments[userID][:0]
	for _, rid := range s.assignments[userID] {
		if rid != roleID {
			kept = append(kept, rid)
		}
	}
	s.assignments[userID] = kept
	return nil
}

func (s *userStore) Exists(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type roleStore struct {
	store *userStore
}

func (s roleStore) Create(_ context.Context, role *Role) error {
	cp := *role
	s.store.roles[role.ID] = &cp
	return nil
}

func (s roleStore) GetByID(_ context.Context, roleID id.ID) (*Role, error) {
	r, ok := s.store.roles[roleID]
	if !ok {
		return nil, apperror.NewNotFound("role", roleID)
	}
	return r, nil
}

func (s roleStore) GetByCode(_ context.Context, code string) (*Role, error) {
	for _, r := range s.store.roles {
		if r.Code == code {
			return r, nil
		}
	}
	return nil, apperror.NewNotFound("role", code)
}

func (s roleStore) Update(_ context.Context, role *Role) error { return nil }

func (s roleStore) Delete(_ context.Context, roleID id.ID) error { return nil }

func (s roleStore) List(_ context.Context) ([]Role, error) {
	var out []Role
	for _, r := range s.store.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (s roleStore) LoadPermissions(_ context.Context, roleID id.ID) ([]Permission, error) {
	return nil, nil
}

func (s roleStore) AssignPermission(_ context.Context, roleID, permissionID id.ID) error {
	return nil
}

func (s roleStore) RevokePermission(_ context.Context, roleID, permissionID id.ID) error {
	return nil
}

type permStore struct{}

func (permStore) GetByCode(_ context.Context, code string) (*Permission, error) {
	return nil, apperror.NewNotFound("permission", code)
}

func (permStore) List(_ context.Context) ([]Permission, error) { return nil, nil }

func (permStore) ListByResource(_ context.Context, resource string) ([]Permission, error) {
	return nil, nil
}

type tokenStore struct {
	tokens map[string]*RefreshToken // by hash
}

func newTokenStore() *tokenStore {
	return &tokenStore{tokens: make(map[string]*RefreshToken)}
}

func (s *tokenStore) SaveRefreshToken(_ context.Context, token *RefreshToken) error {
	cp := *token
	s.tokens[token.TokenHash] = &cp
	return nil
}

func (s *tokenStore) GetRefreshToken(_ context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	cp := *t
	return &cp, nil
}

func (s *tokenStore) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	for _, t := range s.tokens {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (s *tokenStore) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (s *tokenStore) CleanupExpiredTokens(_ context.Context) (int, error) { return 0, nil }

type partyResolver struct {
	byEmail map[string]id.ID
}

func (p *partyResolver) CustomerIDByEmail(_ context.Context, email string) (*id.ID, error) {
	cid, ok := p.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &cid, nil
}

type authFixture struct {
	svc     *Service
	users   *userStore
	tokens  *tokenStore
	parties *partyResolver
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newUserStore()
	f := &authFixture{
		users:   users,
		tokens:  newTokenStore(),
		parties: &partyResolver{byEmail: make(map[string]id.ID)},
	}
	f.svc = NewService(
		users,
		roleStore{store: users},
		permStore{},
		f.tokens,
		f.parties,
		nopTx{},
		NewJWTService(DefaultJWTConfig("test-secret")),
		DefaultServiceConfig(),
	)
	return f
}

func (f *authFixture) seedRole(code string, perms ...string) *Role {
	role := NewRole(code, code)
	f.users.roles[role.ID] = role
	f.users.perms[role.ID] = perms
	return role
}

func (f *authFixture) seedUser(t *testing.T, email, password string, roleCodes ...string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := NewUser(email, string(hash))
	f.users.users[user.ID] = user
	for _, code := range roleCodes {
		for rid, r := range f.users.roles {
			if r.Code == code {
				f.users.assignments[user.ID] = append(f.users.assignments[user.ID], rid)
			}
		}
	}
	return user
}

func TestRegisterAssignsCustomerRoleAndBinding(t *testing.T) {
	f := newAuthFixture(t)
	f.seedRole(RoleCustomer, "orders:create", "orders:read")
	customerID := id.New()
	f.parties.byEmail["buyer@north.test"] = customerID

	user, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "buyer@north.test",
		Password: "s3cret-enough",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored := f.users.users[user.ID]
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.CustomerID == nil || *stored.CustomerID != customerID {
		t.Errorf("customer binding = %v, want %s", stored.CustomerID, customerID)
	}
	if stored.PasswordHash == "s3cret-enough" {
		t.Error("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-enough")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	roles, _ := f.users.LoadRoles(context.Background(), user.ID)
	if len(roles) != 1 || roles[0].Code != RoleCustomer {
		t.Errorf("roles = %+v, want customer", roles)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "buyer@north.test",
		Password: "short",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "buyer@north.test", "password-1")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "buyer@north.test",
		Password: "password-2",
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "planner@procura.test", "correct-horse")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, _, err := f.svc.Login(ctx, Credentials{Email: user.Email, Password: "wrong"}); err == nil {
			t.Fatalf("attempt %d: expected failure", i)
		}
	}

	stored := f.users.users[user.ID]
	if !stored.IsLocked() {
		t.Fatal("account should be locked after 5 failures")
	}

	// Correct password is refused while locked
	_, _, err := f.svc.Login(ctx, Credentials{Email: user.Email, Password: "correct-horse"})
	if err == nil {
		t.Fatal("expected login refusal while locked")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeForbidden {
		t.Errorf("error = %v, want forbidden", err)
	}
}

func TestLoginSuccessResetsFailureCount(t *testing.T) {
	f := newAuthFixture(t)
	f.seedRole(RolePlanner, "planning:execute")
	user := f.seedUser(t, "planner@procura.test", "correct-horse", RolePlanner)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _, _ = f.svc.Login(ctx, Credentials{Email: user.Email, Password: "wrong"})
	}

	tokens, logged, err := f.svc.Login(ctx, Credentials{Email: user.Email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.TokenType != "Bearer" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Errorf("unexpected token pair: %+v", tokens)
	}
	if !logged.HasRole(RolePlanner) {
		t.Error("expected planner role loaded")
	}
	if f.users.users[user.ID].FailedLoginAttempts != 0 {
		t.Errorf("failed attempts = %d, want 0", f.users.users[user.ID].FailedLoginAttempts)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "planner@procura.test", "correct-horse")

	ctx := context.Background()
	tokens, _, err := f.svc.Login(ctx, Credentials{Email: user.Email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	rotated, err := f.svc.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is revoked and cannot be replayed
	if _, err := f.svc.RefreshToken(ctx, tokens.RefreshToken); err == nil {
		t.Fatal("expected replayed refresh token to be rejected")
	}

	// The rotated token still works
	if _, err := f.svc.RefreshToken(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token refresh error = %v", err)
	}
}

func TestLogoutRevokesAllTokens(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "planner@procura.test", "correct-horse")

	ctx := context.Background()
	first, _, err := f.svc.Login(ctx, Credentials{Email: user.Email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, _, err := f.svc.Login(ctx, Credentials{Email: user.Email, Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := f.svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := f.svc.RefreshToken(ctx, token); err == nil {
			t.Error("expected revoked token to be rejected")
		}
	}
}

func TestJWTClaimsCarryPartyBindings(t *testing.T) {
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	supplierID := id.New()

	user := NewUser("portal@acme.test", "hash")
	user.SupplierID = &supplierID
	user.Roles = []Role{{Code: RoleSupplier}}
	user.Permissions = []string{"confirmations:write"}

	token, expiresAt, err := jwtSvc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("token already expired")
	}

	uc, err := jwtSvc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if uc.UserID != user.ID.String() {
		t.Errorf("uid = %q, want %q", uc.UserID, user.ID)
	}
	if uc.SupplierID != supplierID.String() {
		t.Errorf("sup = %q, want %q", uc.SupplierID, supplierID)
	}
	if uc.CustomerID != "" {
		t.Errorf("cus = %q, want empty", uc.CustomerID)
	}
	if len(uc.Roles) != 1 || uc.Roles[0] != RoleSupplier {
		t.Errorf("roles = %v", uc.Roles)
	}
	if len(uc.Permissions) != 1 || uc.Permissions[0] != "confirmations:write" {
		t.Errorf("perms = %v", uc.Permissions)
	}
}

func TestValidateTokenRejectsTamperedSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	user := NewUser("planner@procura.test", "hash")
	token, _, err := issuer.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestAssignRoleUnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "planner@procura.test", "correct-horse")

	err := f.svc.AssignRole(context.Background(), user.ID, "warehouse_wizard")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if !apperror.IsNotFound(err) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestListPlanners(t *testing.T) {
	f := newAuthFixture(t)
	f.seedRole(RolePlanner)
	f.seedRole(RoleViewer)
	f.seedUser(t, "pat@procura.test", "password-1", RolePlanner)
	f.seedUser(t, "sam@procura.test", "password-2", RoleViewer)
	inactive := f.seedUser(t, "gone@procura.test", "password-3", RolePlanner)
	inactive.IsActive = false

	planners, err := f.svc.ListPlanners(context.Background())
	if err != nil {
		t.Fatalf("ListPlanners() error = %v", err)
	}
	if len(planners) != 1 || planners[0].Email != "pat@procura.test" {
		t.Errorf("planners = %+v", planners)
	}
}
