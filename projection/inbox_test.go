package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Inbox_Previews_And_Unread(t *testing.T) {
	req := require.New(t)
	inbox := NewInbox()
	t0 := time.Now().UTC()

	inbox.RecordMessage("alice", "bob", "hi", t0)
	inbox.RecordMessage("alice", "bob", "you there?", t0.Add(time.Minute))
	inbox.RecordMessage("carol", "bob", "hello", t0.Add(2*time.Minute))

	bob := inbox.Snapshot("bob")
	req.Len(bob, 2)
	// Most recent conversation first.
	req.Equal("carol", bob[0].Peer)
	req.Equal(1, bob[0].Unread)
	req.Equal("alice", bob[1].Peer)
	req.Equal(2, bob[1].Unread)
	req.Equal("you there?", bob[1].LastText)

	// The sender side never accumulates unread.
	alice := inbox.Snapshot("alice")
	req.Len(alice, 1)
	req.Equal(0, alice[0].Unread)
}

func Test_Inbox_MarkRead(t *testing.T) {
	req := require.New(t)
	inbox := NewInbox()
	t0 := time.Now().UTC()

	inbox.RecordMessage("alice", "bob", "hi", t0)
	inbox.MarkRead("bob", "alice")

	bob := inbox.Snapshot("bob")
	req.Len(bob, 1)
	req.Equal(0, bob[0].Unread)

	// Marking an unknown conversation is a no-op.
	inbox.MarkRead("bob", "nobody")
	req.Len(inbox.Snapshot("bob"), 1)
}

func Test_Inbox_Empty_Snapshot(t *testing.T) {
	require.Empty(t, NewInbox().Snapshot("ghost"))
}
