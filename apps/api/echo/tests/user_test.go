package tests

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func Test_userApi_userQuery(t *testing.T) {
	e := setup(t)

	path := func(search, ordering string, createdFrom time.Time, isActive *bool, roles ...user.Role) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339Nano))
		}
		for _, r := range roles {
			v.Add("role", string(r))
		}
		return "/v1/admin/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	naughty, err := e.Users.Update(context.Background(), e.CreateUser(t, user.RoleStudent, "N Dog", "ndog@pmnts.test").ID, user.UpdateUser{IsActive: bPtr(false)})
	require.NoError(t, err)

	adminToken := e.getToken(t, admin)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/admin/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/admin/users", token: e.getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Get all", path: "/v1/admin/users", token: adminToken, wantData: marchallList(t, admin, teacher, ana, cal, naughty)},
		// filtering
		{name: "search (unknown)", path: path("lol", "", time.Time{}, nil), token: adminToken, wantData: empty},
		{name: "search=AN", path: path("AN", "", time.Time{}, nil), token: adminToken, wantData: marchallList(t, ana)},
		{name: "role (unknown)", path: path("", "", time.Time{}, nil, "lol"), token: adminToken, wantData: empty},
		{name: "role=student", path: path("", "", time.Time{}, nil, user.RoleStudent), token: adminToken, wantData: marchallList(t, ana, cal, naughty)},
		{
			name: "role=teacher,admin", path: path("", "", time.Time{}, nil, user.RoleTeacher, user.RoleAdmin),
			token: adminToken, wantData: marchallList(t, admin, teacher),
		},
		{name: "is_active=false", path: path("", "", time.Time{}, bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{name: "created_from", path: path("", "", ana.CreatedAt, nil, user.RoleStudent), token: adminToken, wantData: marchallList(t, ana, cal, naughty)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			e.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	orderings := []struct {
		name     string
		path     string
		wantList []user.User
	}{
		{name: "default ordering", path: "/v1/admin/users", wantList: []user.User{naughty, cal, ana, teacher, admin}},
		{name: "order by email", path: path("", "email", time.Time{}, nil), wantList: []user.User{admin, ana, cal, naughty, teacher}},
		{name: "order by -email", path: path("", "-email", time.Time{}, nil), wantList: []user.User{teacher, naughty, cal, ana, admin}},
		{name: "order by is_active,email", path: path("", "is_active,email", time.Time{}, nil), wantList: []user.User{naughty, admin, ana, cal, teacher}},
		{name: "filtering & ordering", path: path("", "-email", time.Time{}, bPtr(true), user.RoleStudent), wantList: []user.User{cal, ana}},
	}
	for _, tt := range orderings {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, adminToken)
			e.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)

			var got []user.User
			decode(t, rec, &got)
			if len(got) != len(tt.wantList) {
				t.Fatalf("len(users) = %v; want %v", len(got), len(tt.wantList))
			}
			for i := range got {
				if got[i].Email != tt.wantList[i].Email {
					t.Errorf("users[%d] = %v; want %v", i, got[i].Email, tt.wantList[i].Email)
				}
			}
		})
	}
}

func Test_userApi_userCreate(t *testing.T) {
	e := setup(t)
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	adminToken := e.getToken(t, admin)

	tests := []httpTest{
		{name: "invalid role", body: []byte(`{"email": "x@pmnts.test", "password": "Sup3r-Secret!", "role": "principal"}`), wantCode: http.StatusBadRequest},
		{name: "duplicate email", body: []byte(`{"email": "admin@pmnts.test", "password": "Sup3r-Secret!", "role": "admin"}`), wantCode: http.StatusBadRequest},
		{name: "admin", body: []byte(`{"email": "Root@pmnts.test", "password": "Sup3r-Secret!", "role": "admin", "full_name": "Root", "department": "Office"}`), wantCode: http.StatusCreated},
		{name: "student", body: []byte(`{"email": "bo@pmnts.test", "password": "Sup3r-Secret!", "role": "student", "full_name": "Bo", "grade_level": " 11 ", "department": "Science"}`), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/admin/users"
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, adminToken, tt.body)
			e.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	root, err := e.Users.GetByEmail(context.Background(), "root@pmnts.test")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, root.Role)
	prof, err := e.Profiles.GetByUserID(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, "Root", prof.FullName)
	assert.Equal(t, "Office", prof.Department)

	bo, err := e.Users.GetByEmail(context.Background(), "bo@pmnts.test")
	require.NoError(t, err)
	prof, err = e.Profiles.GetByUserID(context.Background(), bo.ID)
	require.NoError(t, err)
	assert.Equal(t, "11", prof.GradeLevel)
	assert.Empty(t, prof.Department)
}

// brokenProfiles fails every profile write.
type brokenProfiles struct {
	profile.Repository
}

func (brokenProfiles) CreateProfile(context.Context, profile.Profile) (profile.Profile, error) {
	return profile.Profile{}, errors.New("database unavailable")
}

func Test_userApi_userCreateRollback(t *testing.T) {
	e := setup(t, testutil.WithProfileRepository(func(repo profile.Repository) profile.Repository {
		return brokenProfiles{Repository: repo}
	}))
	admin, err := e.Users.Create(context.Background(), user.NewUser{Email: "admin@pmnts.test", Password: testutil.Password, Role: user.RoleAdmin})
	require.NoError(t, err)
	adminToken := e.getToken(t, admin)

	body := []byte(`{"email": "root@pmnts.test", "password": "Sup3r-Secret!", "role": "admin", "full_name": "Root"}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/users", adminToken, body)
	e.serve(req, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err = e.Users.GetByEmail(context.Background(), "root@pmnts.test")
	assert.ErrorIs(t, err, user.ErrNotFound, "the user row is rolled back along with the profile")
}

func Test_userApi_userUpdate(t *testing.T) {
	e := setup(t)
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	adminToken := e.getToken(t, admin)
	anaToken := e.getToken(t, ana)

	// ana's session is cached
	req, rec := newAuthRequest(http.MethodGet, "/v1/auth/session", anaToken)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	runTests(t, e, []httpTest{
		{name: "unknown user", method: http.MethodPut, path: "/v1/admin/users/nope", token: adminToken, body: []byte(`{}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "self demotion", method: http.MethodPut, path: "/v1/admin/users/" + admin.ID, token: adminToken, body: []byte(`{"role": "teacher"}`), wantCode: http.StatusForbidden},
		{name: "password mismatch", method: http.MethodPut, path: "/v1/admin/users/" + ana.ID, token: adminToken, body: []byte(`{"password": "N3w-Passw0rd"}`), wantCode: http.StatusBadRequest},
		{name: "deactivate", method: http.MethodPut, path: "/v1/admin/users/" + ana.ID, token: adminToken, body: []byte(`{"is_active": false}`), wantCode: http.StatusOK},
	})

	// the cached session of ana is dropped at once
	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/session", anaToken)
	e.serve(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_userApi_userDestroy(t *testing.T) {
	e := setup(t)
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	bo := e.CreateUser(t, user.RoleStudent, "Bo", "bo@pmnts.test")
	adminToken := e.getToken(t, admin)

	runTests(t, e, []httpTest{
		{name: "suicide", method: http.MethodDelete, path: "/v1/admin/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "multiple suicide", method: http.MethodDelete, path: "/v1/admin/users?id=" + ana.ID + "&id=" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "single", method: http.MethodDelete, path: "/v1/admin/users/" + ana.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "multiple", method: http.MethodDelete, path: "/v1/admin/users?id=" + cal.ID + "&id=" + bo.ID, token: adminToken, wantCode: http.StatusNoContent},
	})

	users, err := e.Users.Query(context.Background(), user.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []user.User{admin}, users)
}
