package connection

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// SearchRoles lists the roles a viewer may find and connect with:
// students find their peers, teachers their colleagues and admins everyone.
func SearchRoles(role user.Role) []user.Role {
	switch role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		return []user.Role{user.RoleTeacher}
	default:
		return []user.Role{user.RoleStudent}
	}
}

type Service struct {
	repo Repository
	tx   core.Transactor
	dir  *directory.Directory
}

func NewService(repo Repository, tx core.Transactor, dir *directory.Directory) *Service {
	return &Service{repo: repo, tx: tx, dir: dir}
}

// graph is the adjacency of the connections fetched in bulk.
type graph map[string]map[string]bool

func newGraph(conns []Connection) graph {
	g := make(graph)
	for _, c := range conns {
		g.link(c.UserID, c.ConnectedUserID)
		g.link(c.ConnectedUserID, c.UserID)
	}
	return g
}

func (g graph) link(a, b string) {
	if g[a] == nil {
		g[a] = make(map[string]bool)
	}
	g[a][b] = true
}

func (g graph) connected(a, b string) bool { return g[a][b] }

// mutual counts the common connections of a and b.
func (g graph) mutual(a, b string) int {
	var n int
	for id := range g[a] {
		if id != b && g[b][id] {
			n++
		}
	}
	return n
}

// network loads the connections of me and of the given people in one query.
func (svc *Service) network(ctx context.Context, me string, others ...string) (graph, error) {
	conns, err := svc.repo.QueryConnections(ctx, append([]string{me}, others...)...)
	if err != nil {
		return nil, errors.Wrap(err, "querying connections")
	}
	return newGraph(conns), nil
}

// Status returns the relationship of me with other, with the pending request when there is one.
func (svc *Service) Status(ctx context.Context, me, other string) (Status, *Request, error) {
	g, err := svc.network(ctx, me)
	if err != nil {
		return "", nil, err
	}
	if g.connected(me, other) {
		return StatusConnected, nil, nil
	}
	pending, err := svc.repo.QueryRequests(ctx, RequestFilter{Involving: me, Status: RequestPending})
	if err != nil {
		return "", nil, errors.Wrap(err, "querying requests")
	}
	for _, r := range pending {
		if r.Between(me, other) {
			req := r
			return StatusPending, &req, nil
		}
	}
	return StatusNone, nil, nil
}

// SendRequest asks to connect from with the user toID.
func (svc *Service) SendRequest(ctx context.Context, from user.User, toID string) (Request, error) {
	if from.ID == toID {
		return Request{}, core.NewValidationError(ErrSelfRequest, core.FieldError{Field: "to_user_id", Error: ErrSelfRequest.Error()})
	}
	people, err := svc.dir.Lookup(ctx, toID)
	if err != nil {
		return Request{}, err
	}
	to, ok := people[toID]
	if !ok {
		return Request{}, user.ErrNotFound
	}
	if !inScope(from.Role, to.Role) {
		return Request{}, core.ErrPermissionDenied
	}

	status, _, err := svc.Status(ctx, from.ID, toID)
	if err != nil {
		return Request{}, err
	}
	switch status {
	case StatusConnected:
		return Request{}, core.NewValidationError(ErrAlreadyConnected, core.FieldError{Field: "to_user_id", Error: ErrAlreadyConnected.Error()})
	case StatusPending:
		return Request{}, core.NewValidationError(ErrRequestPending, core.FieldError{Field: "to_user_id", Error: ErrRequestPending.Error()})
	}

	return svc.repo.CreateRequest(ctx, Request{
		FromUserID: from.ID,
		ToUserID:   toID,
		Status:     RequestPending,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) pendingRequest(ctx context.Context, id string) (Request, error) {
	r, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if r.Status != RequestPending {
		return Request{}, core.NewValidationError(ErrRequestNotPending)
	}
	return r, nil
}

// AcceptRequest connects the pair of a request received by me.
// The connection is created and the request marked accepted in the same transaction.
func (svc *Service) AcceptRequest(ctx context.Context, me user.User, requestID string) (Connection, error) {
	r, err := svc.pendingRequest(ctx, requestID)
	if err != nil {
		return Connection{}, err
	}
	if r.ToUserID != me.ID {
		return Connection{}, core.ErrPermissionDenied
	}

	var conn Connection
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		conn, err = svc.repo.CreateConnection(ctx, Connection{
			UserID:          r.FromUserID,
			ConnectedUserID: r.ToUserID,
			CreatedAt:       time.Now().UTC(),
		})
		if err != nil {
			return errors.Wrap(err, "creating connection")
		}
		r.Status = RequestAccepted
		_, err = svc.repo.UpdateRequest(ctx, r)
		return errors.Wrap(err, "accepting request")
	})
	if err != nil {
		return Connection{}, err
	}
	return conn, nil
}

// DeclineRequest drops a request received by me.
func (svc *Service) DeclineRequest(ctx context.Context, me user.User, requestID string) error {
	r, err := svc.pendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if r.ToUserID != me.ID {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteRequest(ctx, r.ID)
}

// CancelRequest withdraws a request sent by me.
func (svc *Service) CancelRequest(ctx context.Context, me user.User, requestID string) error {
	r, err := svc.pendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if r.FromUserID != me.ID {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteRequest(ctx, r.ID)
}

// RemoveConnection disconnects me from otherID. The pair may then send new requests.
func (svc *Service) RemoveConnection(ctx context.Context, me user.User, otherID string) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		removed, err := svc.repo.DeleteConnectionBetween(ctx, me.ID, otherID)
		if err != nil {
			return errors.Wrap(err, "deleting connection")
		}
		if !removed {
			return ErrNotFound
		}
		return errors.Wrap(svc.repo.DeleteRequestsBetween(ctx, me.ID, otherID), "deleting requests")
	})
}

// Connections lists the connections of me with their mutual connections count.
func (svc *Service) Connections(ctx context.Context, me string) ([]View, error) {
	conns, err := svc.repo.QueryConnections(ctx, me)
	if err != nil {
		return nil, errors.Wrap(err, "querying connections")
	}
	if len(conns) == 0 {
		return []View{}, nil
	}
	others := make([]string, 0, len(conns))
	for _, c := range conns {
		others = append(others, c.Other(me))
	}
	g, err := svc.network(ctx, me, others...)
	if err != nil {
		return nil, err
	}
	people, err := svc.dir.Lookup(ctx, others...)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(conns))
	for _, c := range conns {
		other := c.Other(me)
		p := directory.Resolve(people, other)
		views = append(views, View{ID: c.ID, Person: p, Info: p.Info(), Since: c.CreatedAt, Mutual: g.mutual(me, other)})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return strings.ToLower(views[i].Person.FullName) < strings.ToLower(views[j].Person.FullName)
	})
	return views, nil
}

// Count returns the number of connections of me.
func (svc *Service) Count(ctx context.Context, me string) (int, error) {
	conns, err := svc.repo.QueryConnections(ctx, me)
	if err != nil {
		return 0, errors.Wrap(err, "querying connections")
	}
	return len(conns), nil
}

// Requests lists the pending requests received (incoming) or sent (outgoing) by me.
func (svc *Service) Requests(ctx context.Context, me string, dir Direction) ([]RequestView, error) {
	filter := RequestFilter{Status: RequestPending}
	if dir == DirectionIncoming {
		filter.ToUserID = me
	} else {
		filter.FromUserID = me
	}
	reqs, err := svc.repo.QueryRequests(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying requests")
	}
	if len(reqs) == 0 {
		return []RequestView{}, nil
	}

	others := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if dir == DirectionIncoming {
			others = append(others, r.FromUserID)
		} else {
			others = append(others, r.ToUserID)
		}
	}
	g, err := svc.network(ctx, me, others...)
	if err != nil {
		return nil, err
	}
	people, err := svc.dir.Lookup(ctx, others...)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(reqs))
	for i, r := range reqs {
		views = append(views, RequestView{
			Request:   r,
			Person:    directory.Resolve(people, others[i]),
			Direction: dir,
			Mutual:    g.mutual(me, others[i]),
		})
	}
	return views, nil
}

// Search finds the people me may connect with, annotated with their relationship to me.
// Results are ranked by name similarity to query.
func (svc *Service) Search(ctx context.Context, me user.User, query string) ([]SearchResult, error) {
	query = core.CleanString(query)
	people, err := svc.dir.Find(ctx, directory.Filter{
		Search:         query,
		Roles:          SearchRoles(me.Role),
		ExcludeUserIDs: []string{me.ID},
	})
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]string, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.UserID)
	}
	g, err := svc.network(ctx, me.ID, ids...)
	if err != nil {
		return nil, err
	}
	pending, err := svc.repo.QueryRequests(ctx, RequestFilter{Involving: me.ID, Status: RequestPending})
	if err != nil {
		return nil, errors.Wrap(err, "querying requests")
	}
	pendingWith := make(map[string]Request, len(pending))
	for _, r := range pending {
		if r.FromUserID == me.ID {
			pendingWith[r.ToUserID] = r
		} else {
			pendingWith[r.FromUserID] = r
		}
	}

	results := make([]SearchResult, 0, len(people))
	for _, p := range people {
		res := SearchResult{Person: p, Info: p.Info(), Status: StatusNone, Mutual: g.mutual(me.ID, p.UserID)}
		if g.connected(me.ID, p.UserID) {
			res.Status = StatusConnected
		} else if r, ok := pendingWith[p.UserID]; ok {
			res.Status = StatusPending
			res.RequestID = r.ID
			res.Direction = DirectionOutgoing
			if r.ToUserID == me.ID {
				res.Direction = DirectionIncoming
			}
		}
		results = append(results, res)
	}
	rank(results, query)
	return results, nil
}

func inScope(viewer, target user.Role) bool {
	roles := SearchRoles(viewer)
	return roles == nil || slices.Contains(roles, target)
}

// rank orders results by decreasing name similarity to query, then by name.
func rank(results []SearchResult, query string) {
	query = strings.ToLower(query)
	scores := make(map[string]float64, len(results))
	if query != "" {
		q := strings.Split(query, "")
		for _, r := range results {
			name := strings.ToLower(r.Person.FullName)
			score := difflib.NewMatcher(q, strings.Split(name, "")).Ratio()
			if strings.HasPrefix(name, query) {
				score++
			}
			scores[r.Person.UserID] = score
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := scores[results[i].Person.UserID], scores[results[j].Person.UserID]
		if si != sj {
			return si > sj
		}
		return strings.ToLower(results[i].Person.FullName) < strings.ToLower(results[j].Person.FullName)
	})
}
