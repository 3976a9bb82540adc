package service

import (
	"context"
	"testing"
	"time"

	"leadmsg/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkReadZeroesUnread(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Ledger.SendText(ctx, conv.ID, bob.ID, "one")
	require.NoError(t, err)
	_, err = f.svcs.Ledger.SendText(ctx, conv.ID, bob.ID, "two")
	require.NoError(t, err)

	summaries, err := f.svcs.Directory.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 2, summaries[0].UnreadCount)

	require.NoError(t, f.svcs.ReadState.MarkRead(ctx, conv.ID, alice.ID))

	summaries, err = f.svcs.Directory.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summaries[0].UnreadCount)
}

func TestMarkReadOnlyCountsNewerMessages(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Ledger.SendText(ctx, conv.ID, bob.ID, "before")
	require.NoError(t, err)
	require.NoError(t, f.svcs.ReadState.MarkRead(ctx, conv.ID, alice.ID))

	// MarkRead and the next message race on wall-clock time; give the
	// next message a strictly later timestamp.
	time.Sleep(5 * time.Millisecond)

	_, err = f.svcs.Ledger.SendText(ctx, conv.ID, bob.ID, "after")
	require.NoError(t, err)

	summaries, err := f.svcs.Directory.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summaries[0].UnreadCount)
}

func TestMarkReadIsMonotonic(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	require.NoError(t, f.svcs.ReadState.MarkRead(ctx, conv.ID, alice.ID))
	first, err := f.convs.GetParticipant(ctx, conv.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, first.LastReadAt)

	// An older timestamp must never win.
	stale := first.LastReadAt.Add(-time.Hour)
	require.NoError(t, f.convs.MarkRead(ctx, conv.ID, alice.ID, stale))

	after, err := f.convs.GetParticipant(ctx, conv.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, after.LastReadAt)
	assert.False(t, after.LastReadAt.Before(*first.LastReadAt))
}

func TestMarkReadByNonMemberLooksLikeMissingConversation(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	conv := f.directConversation(t, alice.ID, bob.ID)

	err := f.svcs.ReadState.MarkRead(context.Background(), conv.ID, carol.ID)
	requireCode(t, err, errors.CodeNotFound)
}

func TestMarkReadIsPerParticipant(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Ledger.SendText(ctx, conv.ID, alice.ID, "hello")
	require.NoError(t, err)

	// Alice reading her own conversation does not touch Bob's watermark.
	require.NoError(t, f.svcs.ReadState.MarkRead(ctx, conv.ID, alice.ID))

	bobSummaries, err := f.svcs.Directory.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobSummaries, 1)
	assert.EqualValues(t, 1, bobSummaries[0].UnreadCount)
}
