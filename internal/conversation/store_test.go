package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"whatsapp-gateway/internal/contacts"
	"whatsapp-gateway/internal/database"
	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	repos := store.New(db)
	return NewStore(repos.Messages, contacts.NewDirectory(repos.Contacts))
}

func inbound(tenant, phone, providerID, body string, at time.Time) *models.Message {
	msg := &models.Message{
		TenantID:    tenant,
		Phone:       phone,
		Direction:   models.DirectionInbound,
		Type:        models.TypeText,
		Body:        body,
		ContactName: "Alice",
		Timestamp:   at,
	}
	if providerID != "" {
		msg.ProviderMessageID = &providerID
	}
	return msg
}

func TestAppendIsIdempotentOnProviderID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first, err := s.Append(ctx, inbound("t1", "111", "wamid.A", "hi", at))
	require.NoError(t, err)

	again, err := s.Append(ctx, inbound("t1", "111", "wamid.A", "changed", at.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "hi", again.Body)

	thread, err := s.Thread(ctx, "t1", "111", 0)
	require.NoError(t, err)
	assert.Len(t, thread, 1)
}

func TestAppendStampsUTCAndUpsertsContact(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	msg := inbound("t1", "111", "", "hi", time.Time{})
	msg.ContactName = "Bob"
	got, err := s.Append(ctx, msg)
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(fixed))
	assert.Equal(t, time.UTC, got.Timestamp.Location())

	summaries, err := s.LatestPerPhone(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Bob", summaries[0].Name)
}

func TestAppendRejectsMissingKey(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(context.Background(), &models.Message{TenantID: "t1"})
	assert.Error(t, err)
}

func TestOutboundDoesNotCreateContact(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Append(ctx, &models.Message{
		TenantID: "t1", Phone: "222", Direction: models.DirectionOutbound,
		Type: models.TypeText, Body: "hello",
	})
	require.NoError(t, err)

	summaries, err := s.LatestPerPhone(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	// no contact, so the phone stands in for the name
	assert.Equal(t, "222", summaries[0].Name)
	assert.Equal(t, "outbound", summaries[0].LastDirection)
}

func TestConcurrentAppendsKeepOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	const n = 20
	var wg sync.WaitGroup
	for _, phone := range []string{"111", "222"} {
		wg.Add(1)
		go func(phone string) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				_, err := s.Append(ctx, inbound("t1", phone, fmt.Sprintf("%s-%d", phone, i), fmt.Sprint(i), base.Add(time.Duration(i)*time.Second)))
				assert.NoError(t, err)
			}
		}(phone)
	}
	wg.Wait()

	for _, phone := range []string{"111", "222"} {
		thread, err := s.Thread(ctx, "t1", phone, 0)
		require.NoError(t, err)
		require.Len(t, thread, n)
		for i, m := range thread {
			assert.Equal(t, fmt.Sprint(i), m.Body)
		}
	}
	assert.Equal(t, 0, s.locks.size())
}

func TestConcurrentDuplicatesStoreOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := s.Append(ctx, inbound("t1", "111", "wamid.same", "hi", at))
			assert.NoError(t, err)
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	thread, err := s.Thread(ctx, "t1", "111", 0)
	require.NoError(t, err)
	assert.Len(t, thread, 1)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.Append(ctx, inbound("t1", "111", "wamid.X", "for t1", at))
	require.NoError(t, err)
	_, err = s.Append(ctx, inbound("t2", "111", "wamid.X", "for t2", at))
	require.NoError(t, err)

	t1, err := s.Thread(ctx, "t1", "111", 0)
	require.NoError(t, err)
	require.Len(t, t1, 1)
	assert.Equal(t, "for t1", t1[0].Body)

	n, err := s.DeleteThread(ctx, "t1", "111")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	t2, err := s.Thread(ctx, "t2", "111", 0)
	require.NoError(t, err)
	assert.Len(t, t2, 1)
}

func TestLatestPerPhoneOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.Append(ctx, inbound("t1", "111", "a1", "old", base))
	require.NoError(t, err)
	_, err = s.Append(ctx, inbound("t1", "222", "b1", "newer", base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = s.Append(ctx, inbound("t1", "111", "a2", "newest", base.Add(2*time.Minute)))
	require.NoError(t, err)

	summaries, err := s.LatestPerPhone(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "111", summaries[0].Phone)
	assert.Equal(t, "newest", summaries[0].LastMessage)
	assert.EqualValues(t, 2, summaries[0].MessageCount)
	assert.Equal(t, "222", summaries[1].Phone)

	empty, err := s.LatestPerPhone(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestKeyLockReleases(t *testing.T) {
	k := newKeyLock()
	unlock := k.Lock("a")
	assert.Equal(t, 1, k.size())
	unlock()
	assert.Equal(t, 0, k.size())
}

func TestAppendIfNewReportsCreation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, created, err := s.AppendIfNew(ctx, inbound("t1", "111", "wamid.N", "hi", at))
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = s.AppendIfNew(ctx, inbound("t1", "111", "wamid.N", "hi", at))
	require.NoError(t, err)
	assert.False(t, created)
}
