package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

func (e *env) sendRequest(t *testing.T, token, toID string) connection.Request {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/dashboard/friends/requests", token, []byte(fmt.Sprintf(`{"to_user_id": %q}`, toID)))
	e.serve(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("sendRequest() code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var r connection.Request
	decode(t, rec, &r)
	return r
}

func (e *env) requestViews(t *testing.T, token, direction string) []connection.RequestView {
	t.Helper()

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/friends/requests?direction="+direction, token)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []connection.RequestView
	decode(t, rec, &views)
	return views
}

func Test_connectionApi_send(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	bo := e.CreateUser(t, user.RoleStudent, "Bo", "bo@pmnts.test")
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	anaToken := e.getToken(t, ana)

	body := func(id string) []byte { return []byte(fmt.Sprintf(`{"to_user_id": %q}`, id)) }
	runTests(t, e, []httpTest{
		{name: "malformed id", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: anaToken, body: body("nope"), wantCode: http.StatusBadRequest},
		{name: "self", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: anaToken, body: body(ana.ID), wantCode: http.StatusBadRequest},
		{name: "unknown user", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: anaToken, body: body(uuid.NewString()), wantCode: http.StatusNotFound},
		{name: "out of scope", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: anaToken, body: body(teacher.ID), wantCode: http.StatusForbidden},
		{name: "sent", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: anaToken, body: body(bo.ID), wantCode: http.StatusCreated},
		{name: "already pending", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: anaToken, body: body(bo.ID), wantCode: http.StatusBadRequest},
		{name: "pending the other way", method: http.MethodPost, path: "/v1/dashboard/friends/requests", token: e.getToken(t, bo), body: body(ana.ID), wantCode: http.StatusBadRequest},
	})
}

func Test_connectionApi_requests(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	bo := e.CreateUser(t, user.RoleStudent, "Bo", "bo@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	anaToken := e.getToken(t, ana)
	boToken := e.getToken(t, bo)
	calToken := e.getToken(t, cal)

	r := e.sendRequest(t, anaToken, bo.ID)

	incoming := e.requestViews(t, boToken, "")
	require.Len(t, incoming, 1)
	assert.Equal(t, r.ID, incoming[0].ID)
	assert.Equal(t, "Ana", incoming[0].Person.FullName)
	assert.Equal(t, connection.DirectionIncoming, incoming[0].Direction)

	outgoing := e.requestViews(t, anaToken, "outgoing")
	require.Len(t, outgoing, 1)
	assert.Equal(t, "Bo", outgoing[0].Person.FullName)
	assert.Empty(t, e.requestViews(t, anaToken, "incoming"))

	runTests(t, e, []httpTest{
		{name: "bad direction", method: http.MethodGet, path: "/v1/dashboard/friends/requests?direction=sideways", token: anaToken, wantCode: http.StatusBadRequest},
		{name: "accept by sender", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/accept", token: anaToken, wantCode: http.StatusForbidden},
		{name: "accept by stranger", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/accept", token: calToken, wantCode: http.StatusForbidden},
		{name: "accept unknown", method: http.MethodPost, path: "/v1/dashboard/friends/requests/nope/accept", token: boToken, wantCode: http.StatusNotFound},
		{name: "accepted", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/accept", token: boToken, wantCode: http.StatusOK},
		{name: "accept twice", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/accept", token: boToken, wantCode: http.StatusBadRequest},
	})
	assert.Empty(t, e.requestViews(t, boToken, "incoming"))

	// decline then send again, then cancel
	r = e.sendRequest(t, anaToken, cal.ID)
	runTests(t, e, []httpTest{
		{name: "decline by sender", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/decline", token: anaToken, wantCode: http.StatusForbidden},
		{name: "declined", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/decline", token: calToken, wantCode: http.StatusNoContent},
	})
	r = e.sendRequest(t, anaToken, cal.ID)
	runTests(t, e, []httpTest{
		{name: "cancel by receiver", method: http.MethodDelete, path: "/v1/dashboard/friends/requests/" + r.ID, token: calToken, wantCode: http.StatusForbidden},
		{name: "cancelled", method: http.MethodDelete, path: "/v1/dashboard/friends/requests/" + r.ID, token: anaToken, wantCode: http.StatusNoContent},
		{name: "accept cancelled", method: http.MethodPost, path: "/v1/dashboard/friends/requests/" + r.ID + "/accept", token: calToken, wantCode: http.StatusNotFound},
	})
}

func Test_connectionApi_network(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	bo := e.CreateUser(t, user.RoleStudent, "Bo", "bo@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	dee := e.CreateUser(t, user.RoleStudent, "Dee", "dee@pmnts.test")
	e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	anaToken := e.getToken(t, ana)
	boToken := e.getToken(t, bo)
	calToken := e.getToken(t, cal)

	accept := func(token string, r connection.Request) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/dashboard/friends/requests/"+r.ID+"/accept", token)
		e.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	accept(boToken, e.sendRequest(t, anaToken, bo.ID))
	accept(calToken, e.sendRequest(t, anaToken, cal.ID))
	accept(calToken, e.sendRequest(t, boToken, cal.ID))
	pending := e.sendRequest(t, e.getToken(t, dee), ana.ID)

	// friends and colleagues are the same network
	for _, prefix := range []string{"/v1/dashboard/friends", "/v1/dashboard/colleagues"} {
		t.Run(prefix, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, prefix, anaToken)
			e.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)

			var views []connection.View
			decode(t, rec, &views)
			require.Len(t, views, 2)
			assert.Equal(t, "Bo", views[0].Person.FullName)
			assert.Equal(t, "Grade 11", views[0].Info)
			assert.Equal(t, 1, views[0].Mutual)
			assert.Equal(t, "Cal", views[1].Person.FullName)
		})
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/friends/search", anaToken)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []connection.SearchResult
	decode(t, rec, &results)

	statuses := make(map[string]connection.SearchResult, len(results))
	for _, r := range results {
		statuses[r.Person.UserID] = r
	}
	require.Len(t, statuses, 3, "students only, without ana")
	assert.Equal(t, connection.StatusConnected, statuses[bo.ID].Status)
	assert.Equal(t, connection.StatusConnected, statuses[cal.ID].Status)
	assert.Equal(t, connection.StatusPending, statuses[dee.ID].Status)
	assert.Equal(t, pending.ID, statuses[dee.ID].RequestID)
	assert.Equal(t, connection.DirectionIncoming, statuses[dee.ID].Direction)

	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard/friends/search?q=ca", anaToken)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	results = nil
	decode(t, rec, &results)
	require.NotEmpty(t, results)
	assert.Equal(t, cal.ID, results[0].Person.UserID)

	runTests(t, e, []httpTest{
		{name: "removed", method: http.MethodDelete, path: "/v1/dashboard/colleagues/" + bo.ID, token: anaToken, wantCode: http.StatusNoContent},
		{name: "removed twice", method: http.MethodDelete, path: "/v1/dashboard/friends/" + bo.ID, token: anaToken, wantCode: http.StatusNotFound},
	})

	// the pair may connect again
	e.sendRequest(t, boToken, ana.ID)
}
