package service

import (
	"context"
	"fmt"
	"testing"

	"leadmsg/backend/messaging/models"
	"leadmsg/backend/messaging/repository"
	"leadmsg/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveKeepsConversationForRemaining(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	ctx := context.Background()
	conv := f.groupConversation(t, alice.ID, bob.ID, carol.ID)

	require.NoError(t, f.svcs.Lifecycle.Leave(ctx, conv.ID, carol.ID))

	// Carol is out; the conversation still exists for the others.
	_, err := f.svcs.Ledger.ListMessages(ctx, conv.ID, carol.ID, 0, 0)
	requireCode(t, err, errors.CodeNotFound)

	page, err := f.svcs.Ledger.ListMessages(ctx, conv.ID, alice.ID, 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, page)

	count, err := f.convs.CountParticipants(ctx, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestLastLeaveTearsDownConversation(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	_, err := f.svcs.Ledger.SendText(ctx, conv.ID, alice.ID, "hello")
	require.NoError(t, err)
	files := []models.UploadFile{uploadFile("doc.pdf", "application/pdf", 64)}
	_, err = f.svcs.Uploader.SendWithAttachments(ctx, conv.ID, bob.ID, files, "")
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Count())

	require.NoError(t, f.svcs.Lifecycle.Leave(ctx, conv.ID, alice.ID))
	require.NoError(t, f.svcs.Lifecycle.Leave(ctx, conv.ID, bob.ID))

	// The conversation and its rows are gone.
	conversation, err := f.convs.GetByID(ctx, conv.ID)
	require.Error(t, err)
	assert.Nil(t, conversation)

	var messages int64
	require.NoError(t, f.db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&messages).Error)
	assert.EqualValues(t, 0, messages)

	var attachments int64
	require.NoError(t, f.db.Model(&models.Attachment{}).Count(&attachments).Error)
	assert.EqualValues(t, 0, attachments)

	// The stored object was deleted too.
	assert.Equal(t, 0, f.store.Count())
	assert.Len(t, f.store.Deleted(), 1)
}

func TestTeardownProceedsWhenStorageDeleteFails(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx := context.Background()
	conv := f.directConversation(t, alice.ID, bob.ID)

	files := []models.UploadFile{uploadFile("doc.pdf", "application/pdf", 64)}
	_, err := f.svcs.Uploader.SendWithAttachments(ctx, conv.ID, bob.ID, files, "")
	require.NoError(t, err)

	f.store.DeleteErr = fmt.Errorf("storage unavailable")

	require.NoError(t, f.svcs.Lifecycle.Leave(ctx, conv.ID, alice.ID))
	require.NoError(t, f.svcs.Lifecycle.Leave(ctx, conv.ID, bob.ID))

	// Rows are gone even though the object delete failed.
	conversation, err := f.convs.GetByID(ctx, conv.ID)
	require.Error(t, err)
	assert.Nil(t, conversation)
}

func TestTeardownFinishesDespiteCanceledRequest(t *testing.T) {
	f := newFixture(t, alice, bob)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conv := f.directConversation(t, alice.ID, bob.ID)

	files := []models.UploadFile{uploadFile("doc.pdf", "application/pdf", 64)}
	_, err := f.svcs.Uploader.SendWithAttachments(ctx, conv.ID, bob.ID, files, "")
	require.NoError(t, err)
	require.NoError(t, f.svcs.Lifecycle.Leave(ctx, conv.ID, alice.ID))

	// The last leaver hangs up right after their row is removed. Teardown
	// still deletes the blob and the conversation rows.
	convs := &cancelOnEmptyRepo{ConversationRepository: f.convs, cancel: cancel}
	store := &ctxAwareGateway{inner: f.store}
	svc := NewLifecycleService(convs, f.msgs, store, quietLogger())

	require.NoError(t, svc.Leave(ctx, conv.ID, bob.ID))

	assert.Equal(t, 0, f.store.Count())
	assert.Len(t, f.store.Deleted(), 1)

	conversation, err := f.convs.GetByID(context.Background(), conv.ID)
	require.Error(t, err)
	assert.Nil(t, conversation)
}

func TestLeaveByNonMemberLooksLikeMissingConversation(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	conv := f.directConversation(t, alice.ID, bob.ID)

	err := f.svcs.Lifecycle.Leave(context.Background(), conv.ID, carol.ID)
	requireCode(t, err, errors.CodeNotFound)
}

func TestLeaveTwiceLooksLikeMissingConversation(t *testing.T) {
	f := newFixture(t, alice, bob, carol)
	conv := f.groupConversation(t, alice.ID, bob.ID, carol.ID)

	require.NoError(t, f.svcs.Lifecycle.Leave(context.Background(), conv.ID, carol.ID))
	err := f.svcs.Lifecycle.Leave(context.Background(), conv.ID, carol.ID)
	requireCode(t, err, errors.CodeNotFound)
}

// cancelOnEmptyRepo cancels the request context once the participant count
// hits zero, simulating the caller disconnecting as teardown begins.
type cancelOnEmptyRepo struct {
	repository.ConversationRepository
	cancel context.CancelFunc
}

func (r *cancelOnEmptyRepo) CountParticipants(ctx context.Context, conversationID string) (int64, error) {
	count, err := r.ConversationRepository.CountParticipants(ctx, conversationID)
	if err == nil && count == 0 {
		r.cancel()
	}
	return count, err
}
