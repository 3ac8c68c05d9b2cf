package pkg

import (
	"slices"

	"github.com/samber/lo"
)

// Room holds the members of one live session. members and names are
// index-aligned.
type Room struct {
	id      string
	members []*Client
	names   []string
}

func newRoom(id string) *Room {
	return &Room{
		id:      id,
		members: make([]*Client, 0, 2),
		names:   make([]string, 0, 2),
	}
}

func (r *Room) add(client *Client, name string) {
	r.members = append(r.members, client)
	r.names = append(r.names, name)
}

// remove drops every entry for client and returns the display name it
// joined with. ok is false if the client was not a member.
func (r *Room) remove(client *Client) (name string, ok bool) {
	for {
		i := lo.IndexOf(r.members, client)
		if i < 0 {
			return name, ok
		}

		if !ok {
			name, ok = r.names[i], true
		}

		r.members = slices.Delete(r.members, i, i+1)
		r.names = slices.Delete(r.names, i, i+1)
	}
}

// others returns the members that should receive an event sent by client.
func (r *Room) others(client *Client) []*Client {
	return lo.Filter(r.members, func(member *Client, _ int) bool {
		return member != client
	})
}

func (r *Room) empty() bool {
	return len(r.members) == 0
}
