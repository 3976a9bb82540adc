package service

import (
	"context"
	"testing"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = UserInfo{ID: "11111111-1111-1111-1111-111111111111", Name: "Alice", Email: "alice@example.com"}
	bob   = UserInfo{ID: "22222222-2222-2222-2222-222222222222", Name: "Bob", Email: "bob@example.com"}
	carol = UserInfo{ID: "33333333-3333-3333-3333-333333333333", Name: "Carol", Email: "carol@example.com"}
)

func TestCreateOrGetDirectIsIdempotentAcrossOrder(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()

	first, err := f.svcs.Directory.CreateOrGetDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, models.KindDirect, first.Kind)
	assert.Nil(t, first.Name)

	// Same pair, both orders, must return the same conversation.
	again, err := f.svcs.Directory.CreateOrGetDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	reversed, err := f.svcs.Directory.CreateOrGetDirect(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, reversed.ID)
}

func TestCreateOrGetDirectRejectsSelfAndUnknownUsers(t *testing.T) {
	f := newFixture(t, alice)
	ctx := context.Background()

	_, err := f.svcs.Directory.CreateOrGetDirect(ctx, alice.ID, alice.ID)
	requireCode(t, err, errors.CodeValidation)

	_, err = f.svcs.Directory.CreateOrGetDirect(ctx, alice.ID, "no-such-user")
	requireCode(t, err, errors.CodeValidation)
}

func TestDistinctPairsGetDistinctConversations(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	ctx := context.Background()

	ab, err := f.svcs.Directory.CreateOrGetDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	ac, err := f.svcs.Directory.CreateOrGetDirect(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.NotEqual(t, ab.ID, ac.ID)
}

func TestCreateGroupDedupesMembersAndKeepsName(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	ctx := context.Background()

	conv, err := f.svcs.Directory.CreateGroup(ctx, alice.ID, []string{bob.ID, bob.ID, alice.ID, carol.ID}, "  Launch Plans  ")
	require.NoError(t, err)
	require.NotNil(t, conv.Name)
	assert.Equal(t, "Launch Plans", *conv.Name)

	participants, err := f.convs.ListParticipants(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 3)
}

func TestCreateGroupRequiresAnotherMember(t *testing.T) {
	f := newFixture(t, alice)
	ctx := context.Background()

	// Only the caller, directly or via duplicates, is not a group.
	_, err := f.svcs.Directory.CreateGroup(ctx, alice.ID, []string{alice.ID}, "")
	requireCode(t, err, errors.CodeValidation)

	_, err = f.svcs.Directory.CreateGroup(ctx, alice.ID, nil, "")
	requireCode(t, err, errors.CodeValidation)
}

func TestRenameGroupAndClearName(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.groupConversation(t, alice.ID, bob.ID)

	renamed, err := f.svcs.Directory.Rename(ctx, conv.ID, alice.ID, "Planning")
	require.NoError(t, err)
	require.NotNil(t, renamed.Name)
	assert.Equal(t, "Planning", *renamed.Name)

	// Whitespace-only clears the stored name.
	cleared, err := f.svcs.Directory.Rename(ctx, conv.ID, alice.ID, "   ")
	require.NoError(t, err)
	assert.Nil(t, cleared.Name)
}

func TestRenameDirectConversationIsRejected(t *testing.T) {
	f := newFixture(t, alice, bob)
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Directory.Rename(context.Background(), conv.ID, alice.ID, "Nope")
	requireCode(t, err, errors.CodeValidation)
}

func TestRenameByNonMemberLooksLikeMissingConversation(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Directory.Rename(context.Background(), conv.ID, carol.ID, "Intruder")
	requireCode(t, err, errors.CodeNotFound)
}

func TestListAnnotatesSummaries(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	ctx := context.Background()

	direct := f.directConversation(t, alice.ID, bob.ID)
	group := f.groupConversation(t, alice.ID, bob.ID, carol.ID)

	_, err := f.svcs.Ledger.SendText(ctx, direct.ID, bob.ID, "hey alice")
	require.NoError(t, err)
	_, err = f.svcs.Ledger.SendText(ctx, group.ID, carol.ID, "meeting at 3")
	require.NoError(t, err)

	summaries, err := f.svcs.Directory.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]models.ConversationSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}

	d := byID[direct.ID]
	assert.Equal(t, "Bob", d.DisplayName)
	assert.EqualValues(t, 1, d.UnreadCount)
	require.NotNil(t, d.LastMessage)
	assert.Equal(t, "hey alice", d.LastMessage.Content)

	g := byID[group.ID]
	assert.Equal(t, models.DefaultGroupName, g.DisplayName)
	assert.EqualValues(t, 1, g.UnreadCount)
}

func TestListOrdersByRecentActivity(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	ctx := context.Background()

	older := f.directConversation(t, alice.ID, bob.ID)
	newer := f.directConversation(t, alice.ID, carol.ID)

	// A message in the older conversation moves it to the front.
	_, err := f.svcs.Ledger.SendText(ctx, older.ID, bob.ID, "bump")
	require.NoError(t, err)

	summaries, err := f.svcs.Directory.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, older.ID, summaries[0].ID)
	assert.Equal(t, newer.ID, summaries[1].ID)
}

func TestUnreadCountIgnoresOwnMessages(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Ledger.SendText(ctx, conv.ID, alice.ID, "from me")
	require.NoError(t, err)
	_, err = f.svcs.Ledger.SendText(ctx, conv.ID, bob.ID, "from bob")
	require.NoError(t, err)

	summaries, err := f.svcs.Directory.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 1, summaries[0].UnreadCount)
}
