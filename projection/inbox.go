// Package projection builds local views from observed chat activity.
// Handles previews and unread counters; does not emit events and never
// touches the transport. Projections are a cache: the message store remains
// the source of truth and the inbox rebuilds empty after a restart.
package projection

import (
	"sort"
	"sync"
	"time"
)

// Preview is one conversation line of a user's inbox.
type Preview struct {
	Peer     string    `json:"peer"`
	LastText string    `json:"last_text"`
	LastAt   time.Time `json:"last_at"`
	Unread   int       `json:"unread"`
}

// Inbox keeps per-user conversation previews, keyed owner -> peer.
type Inbox struct {
	mu       sync.RWMutex
	previews map[string]map[string]*Preview
}

func NewInbox() *Inbox {
	return &Inbox{previews: make(map[string]map[string]*Preview)}
}

func (i *Inbox) ensure(owner string) map[string]*Preview {
	if _, ok := i.previews[owner]; !ok {
		i.previews[owner] = make(map[string]*Preview)
	}
	return i.previews[owner]
}

// RecordMessage updates both participants' previews. The unread counter only
// moves on the recipient side.
func (i *Inbox) RecordMessage(from, to, text string, at time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	sender := i.ensure(from)
	if p, ok := sender[to]; ok {
		p.LastText, p.LastAt = text, at
	} else {
		sender[to] = &Preview{Peer: to, LastText: text, LastAt: at}
	}

	recipient := i.ensure(to)
	if p, ok := recipient[from]; ok {
		p.LastText, p.LastAt = text, at
		p.Unread++
	} else {
		recipient[from] = &Preview{Peer: from, LastText: text, LastAt: at, Unread: 1}
	}
}

// MarkRead zeroes the unread counter of the (reader, peer) conversation. The
// reader of a read({from, to}) protocol event is the recipient `to`, whose
// unread messages came from `from`.
func (i *Inbox) MarkRead(reader, peer string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if p, ok := i.previews[reader][peer]; ok {
		p.Unread = 0
	}
}

// Snapshot returns the owner's previews, most recent conversation first.
func (i *Inbox) Snapshot(owner string) []Preview {
	i.mu.RLock()
	defer i.mu.RUnlock()

	list := make([]Preview, 0, len(i.previews[owner]))
	for _, p := range i.previews[owner] {
		list = append(list, *p)
	}
	sort.Slice(list, func(a, b int) bool { return list[a].LastAt.After(list[b].LastAt) })
	return list
}
