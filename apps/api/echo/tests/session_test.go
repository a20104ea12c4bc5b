package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/akia2466/PMNTS-Lovable/apps/api/echo"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func Test_sessionApi_signUp(t *testing.T) {
	e := setup(t)
	e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")

	tests := []struct {
		name       string
		body       interface{}
		wantCode   int
		wantFields []string
	}{
		{name: "empty form", body: map[string]string{}, wantCode: http.StatusBadRequest, wantFields: []string{"email", "password", "full_name"}},
		{
			name:       "malformed email & short password",
			body:       map[string]string{"email": "nope", "password": "abc", "full_name": "Bo"},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"email", "password"},
		},
		{
			name:       "password with spaces",
			body:       map[string]string{"email": "bo@pmnts.test", "password": "has some spaces", "full_name": "Bo"},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"password"},
		},
		{
			name:       "admin role refused",
			body:       map[string]string{"email": "bo@pmnts.test", "password": testutil.Password, "full_name": "Bo", "role": "admin"},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"role"},
		},
		{
			name:       "duplicate email",
			body:       map[string]string{"email": "ANA@pmnts.test", "password": testutil.Password, "full_name": "Ana Bis"},
			wantCode:   http.StatusBadRequest,
			wantFields: []string{"email"},
		},
		{
			name:     "student",
			body:     map[string]string{"email": "bo@pmnts.test", "password": testutil.Password, "full_name": "Bo Silva", "grade_level": "10"},
			wantCode: http.StatusCreated,
		},
		{
			name: "teacher",
			body: map[string]string{
				"email": "mr.k@pmnts.test", "password": testutil.Password, "full_name": "Mr K", "role": "teacher", "department": "Maths",
			},
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/signup", marchallObj(t, tt.body))
			e.serve(req, rec)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusCreated {
				var fields map[string]string
				decode(t, rec, &fields)
				for _, f := range tt.wantFields {
					assert.Contains(t, fields, f)
				}
				return
			}

			var resp SessionResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, resp.User.ID, resp.Profile.UserID)
			assert.Equal(t, resp.User.Role, resp.Role)
		})
	}

	bo, err := e.Users.GetByEmail(context.Background(), "bo@pmnts.test")
	require.NoError(t, err)
	prof, err := e.Profiles.GetByUserID(context.Background(), bo.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", prof.GradeLevel)
	assert.Equal(t, user.RoleStudent, bo.Role)
}

func Test_sessionApi_signIn(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")
	gone := e.CreateUser(t, user.RoleStudent, "Gone Girl", "gone@pmnts.test")
	inactive := false
	_, err := e.Users.Update(context.Background(), gone.ID, user.UpdateUser{IsActive: &inactive})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "unknown email", body: marchallObj(t, SignInRequest{Email: "who@pmnts.test", Password: testutil.Password}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, SignInRequest{Email: "ana@pmnts.test", Password: "nope-nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", body: marchallObj(t, SignInRequest{Email: "gone@pmnts.test", Password: testutil.Password}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "signed in", body: marchallObj(t, SignInRequest{Email: " Ana@PMNTS.test", Password: testutil.Password}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/signin", tt.body)
			e.serve(req, rec)
			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp SessionResponse
			decode(t, rec, &resp)
			assert.Equal(t, ana.ID, resp.User.ID)
			assert.Equal(t, "Ana Lima", resp.Profile.FullName)
			assert.False(t, resp.User.LastLogin.IsZero())
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func Test_sessionApi_current(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")
	token := e.getToken(t, ana)

	forged := token[:len(token)-2] + "xx"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Forged token", token: forged, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/auth/session"
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			e.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Identity", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/session", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			User    user.User `json:"user"`
			Role    user.Role `json:"role"`
			Profile struct {
				FullName string `json:"full_name"`
			} `json:"profile"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, ana.ID, resp.User.ID)
		assert.Equal(t, user.RoleStudent, resp.Role)
		assert.Equal(t, "Ana Lima", resp.Profile.FullName)
	})

	t.Run("Token in query", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/auth/session?access_token="+token)
		e.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_sessionApi_signOut(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")
	token := e.getToken(t, ana)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/signout", token)
	e.serve(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "session has been signed out"})}
	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/session", token)
	e.serve(req, rec)
	checkCodeAndData(t, tt, rec)

	// a new session is unaffected
	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/session", e.getToken(t, ana))
	e.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_sessionApi_refreshToken(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")
	naughty := e.CreateUser(t, user.RoleStudent, "N Dog", "ndog@pmnts.test")
	naughtyToken := e.getToken(t, naughty)
	inactive := false
	_, err := e.Users.Update(context.Background(), naughty.ID, user.UpdateUser{IsActive: &inactive})
	require.NoError(t, err)
	e.Sessions.ProfileChanged(context.Background(), naughty.ID)

	old := e.tokens.Claims(ana, time.Now().Add(-2*e.Conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshableToken, err := e.tokens.Sign(old)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: naughtyToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/token-refresh"
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			e.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Token refreshed", func(t *testing.T) {
		oldToken := e.getToken(t, ana)
		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", oldToken)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp TokenResponse
		decode(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		// the replaced token is revoked, the new one works
		req, rec = newAuthRequest(http.MethodGet, "/v1/auth/session", oldToken)
		e.serve(req, rec)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		req, rec = newAuthRequest(http.MethodGet, "/v1/auth/session", resp.Token)
		e.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_sessionApi_updateProfile(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")
	token := e.getToken(t, ana)

	// warm up the session cache
	req, rec := newAuthRequest(http.MethodGet, "/v1/auth/session", token)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, "/v1/auth/profile", token, []byte(`{"avatar_url": "not a url"}`))
	e.serve(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, "/v1/auth/profile", token, []byte(`{"full_name": "  Ana Maria Lima ", "phone": "+243 800"}`))
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/session", token)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Profile struct {
			FullName string `json:"full_name"`
			Phone    string `json:"phone"`
		} `json:"profile"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Ana Maria Lima", resp.Profile.FullName)
	assert.Equal(t, "+243 800", resp.Profile.Phone)
}

func Test_sessionApi_passwordReset(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana Lima", "ana@pmnts.test")

	sent := SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."}
	tests := []struct {
		httpTest
		wantMails int
	}{
		{httpTest: httpTest{name: "invalid email", body: []byte(`{"email": "ana"}`), wantCode: http.StatusBadRequest}},
		{httpTest: httpTest{name: "unknown email", body: []byte(`{"email": "who@pmnts.test"}`), wantCode: http.StatusOK, wantData: marchallObj(t, sent)}},
		{httpTest: httpTest{name: "known email", body: []byte(`{"email": "ANA@pmnts.test"}`), wantCode: http.StatusOK, wantData: marchallObj(t, sent)}, wantMails: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Mail.Reset()
			req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset", tt.body)
			e.serve(req, rec)
			checkCodeAndData(t, tt.httpTest, rec)
			assert.Len(t, e.Mail.SentMessages(), tt.wantMails)
		})
	}

	msgs := e.Mail.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ana@pmnts.test", msgs[0].To[0].Address)
	assert.Equal(t, "Ana Lima", msgs[0].To[0].Name)

	data, ok := msgs[0].TemplateData.(map[string]string)
	require.True(t, ok)
	confirm := func(token, pwd string) int {
		body := marchallObj(t, user.ResetUserPassword{Token: token, UID: data["UID"], Password: pwd, PasswordConfirm: pwd})
		req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset-confirm", body)
		e.serve(req, rec)
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, confirm("bad-token", "N3w-Passw0rd"))
	assert.Equal(t, http.StatusBadRequest, confirm(data["Token"], "short"))
	assert.Equal(t, http.StatusOK, confirm(data["Token"], "N3w-Passw0rd"))

	_, err := e.Sessions.SignIn(context.Background(), ana.Email, "N3w-Passw0rd")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, confirm(data["Token"], "An0ther-Passw0rd"), "a reset token is single use")
}

func Test_sessionApi_roles(t *testing.T) {
	e := setup(t)
	runTests(t, e, []httpTest{
		{name: "roles", method: http.MethodGet, path: "/v1/auth/roles", wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	})
}

func Test_server_notFound(t *testing.T) {
	e := setup(t)
	runTests(t, e, []httpTest{
		{name: "unknown route", method: http.MethodGet, path: "/v1/nowhere", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "unknown root", method: http.MethodGet, path: "/lol", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})

	req, rec := newRequest(http.MethodGet, "/")
	e.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Welcome"))
}
