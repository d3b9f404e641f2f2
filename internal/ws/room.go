package ws

import (
	"go.uber.org/zap"
)

// Member is a connection handle that can sit in a group.
type Member interface {
	ID() string
	// Send enqueues one frame; it must not block.
	Send(msg []byte) error
}

// group is a set of members. It is guarded by the owning Hub's lock.
type group struct {
	name    string
	members map[Member]struct{}
}

func newGroup(name string) *group { return &group{name: name, members: map[Member]struct{}{}} }

func (g *group) snapshot() []Member {
	members := make([]Member, 0, len(g.members))
	for m := range g.members {
		members = append(members, m)
	}
	return members
}

// broadcast delivers msg to every member; one failing member never affects the others.
func broadcast(name string, members []Member, msg []byte) {
	for _, m := range members {
		if err := m.Send(msg); err != nil {
			zap.L().Warn("ws.deliver_failed",
				zap.String("group", name),
				zap.String("conn_id", m.ID()),
				zap.Error(err),
			)
		}
	}
}
