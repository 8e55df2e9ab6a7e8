package registry

import (
	"fmt"

	"github.com/openregistry/registry-go/internal/store"
)

// Owner is one current owner of a crate: an individual user or a team.
// The two variants share the same public surface and are distinguished by
// Kind when a membership check needs to dispatch.
type Owner interface {
	ID() uint
	Login() string
	DisplayName() string
	Kind() store.OwnerKind
	PublicView() EncodableOwner
}

// EncodableOwner is the public "owner" view rendered by the owners
// endpoints.
type EncodableOwner struct {
	ID        uint   `json:"id"`
	Login     string `json:"login"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar,omitempty"`
	URL       string `json:"url,omitempty"`
}

// UserOwner is the individual-account variant.
type UserOwner struct {
	User *store.User
}

func (o UserOwner) ID() uint              { return o.User.ID }
func (o UserOwner) Login() string         { return o.User.Login }
func (o UserOwner) Kind() store.OwnerKind { return store.OwnerUser }

func (o UserOwner) DisplayName() string {
	if o.User.Name != "" {
		return o.User.Name
	}
	return o.User.Login
}

func (o UserOwner) PublicView() EncodableOwner {
	return EncodableOwner{
		ID:        o.User.ID,
		Login:     o.User.Login,
		Kind:      string(store.OwnerUser),
		Name:      o.DisplayName(),
		AvatarURL: o.User.AvatarURL,
		URL:       fmt.Sprintf("https://github.com/%s", o.User.Login),
	}
}

// TeamOwner is the group-identity variant. Team logins carry the backing
// org in the form "github:org:team".
type TeamOwner struct {
	Team *store.Team
}

func (o TeamOwner) ID() uint              { return o.Team.ID }
func (o TeamOwner) Login() string         { return o.Team.Login }
func (o TeamOwner) Kind() store.OwnerKind { return store.OwnerTeam }

func (o TeamOwner) DisplayName() string {
	if o.Team.Name != "" {
		return o.Team.Name
	}
	return o.Team.Login
}

func (o TeamOwner) PublicView() EncodableOwner {
	return EncodableOwner{
		ID:    o.Team.ID,
		Login: o.Team.Login,
		Kind:  string(store.OwnerTeam),
		Name:  o.DisplayName(),
	}
}

// CountIndividualOwners returns how many owners are user-kind. The
// at-least-one-individual-owner floor only counts these.
func CountIndividualOwners(owners []Owner) int {
	n := 0
	for _, o := range owners {
		if o.Kind() == store.OwnerUser {
			n++
		}
	}
	return n
}
