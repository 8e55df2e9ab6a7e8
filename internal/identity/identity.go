// Package identity resolves the acting user for a request and answers
// team-membership questions. Authentication proper happens upstream; this
// core trusts the identity headers it is handed.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openregistry/registry-go/internal/store"
)

// Identity errors.
var (
	ErrNoActor      = errors.New("no acting user on request")
	ErrUnknownActor = errors.New("unknown acting user")
)

// HeaderUser is the trusted header carrying the acting user's login.
const HeaderUser = "X-Registry-User"

// Resolver maps a request to the acting user row.
type Resolver struct {
	db store.ActorStore
}

// NewResolver creates a Resolver over the user store.
func NewResolver(db store.ActorStore) *Resolver {
	return &Resolver{db: db}
}

// CurrentUser resolves the acting user from the request headers. The
// X-Registry-User header wins; a bare Authorization value is accepted as
// the login for tooling that only speaks that header. When several user
// rows share the login, the one with the highest gh_id is the account in
// use.
func (r *Resolver) CurrentUser(req *http.Request) (*store.User, error) {
	login := req.Header.Get(HeaderUser)
	if login == "" {
		login = strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		login = strings.TrimSpace(login)
	}
	if login == "" {
		return nil, ErrNoActor
	}

	users, err := r.db.FindUsersByLogin(req.Context(), login)
	if err != nil {
		return nil, err
	}

	var best *store.User
	for _, u := range users {
		if !u.Active {
			continue
		}
		if best == nil || u.GHID > best.GHID {
			best = u
		}
	}
	if best == nil {
		return nil, ErrUnknownActor
	}
	return best, nil
}

// StaticTeamDirectory answers team-membership queries from a fixed
// mapping of team login to member logins, typically decoded from the
// [teams.static] config section. It satisfies registry.TeamMembership.
type StaticTeamDirectory struct {
	// Members maps a team login ("github:org:team") to the user logins
	// allowed to publish on the team's behalf.
	Members map[string][]string `json:"members" mapstructure:"members"`
}

// NewStaticTeamDirectory creates a directory over the given mapping. A
// nil mapping answers false for everything.
func NewStaticTeamDirectory(members map[string][]string) *StaticTeamDirectory {
	return &StaticTeamDirectory{Members: members}
}

// HasPublishRights reports whether user belongs to team per the static
// mapping.
func (d *StaticTeamDirectory) HasPublishRights(ctx context.Context, user *store.User, team *store.Team) (bool, error) {
	if d == nil || d.Members == nil {
		return false, nil
	}
	for _, login := range d.Members[team.Login] {
		if login == user.Login {
			return true, nil
		}
	}
	return false, nil
}
