package domain

import "fmt"

type ActorKind string

const (
	KindUser    ActorKind = "user"
	KindCaptain ActorKind = "captain"
	KindAdmin   ActorKind = "admin"
)

var actorKinds = map[ActorKind]struct{}{
	KindUser:    {},
	KindCaptain: {},
	KindAdmin:   {},
}

func ParseActorKind(s string) (ActorKind, error) {
	k := ActorKind(s)
	if _, ok := actorKinds[k]; !ok {
		return "", fmt.Errorf("unknown actor kind %q", s)
	}
	return k, nil
}

// ActorRef points at an account of any kind.
type ActorRef struct {
	Kind ActorKind `json:"kind"`
	ID   int       `json:"id"`
}

func (r ActorRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

func (r ActorRef) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}
