package notifier

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitpulse/habitpulse/store"
	storetest "github.com/habitpulse/habitpulse/store/test"
)

type mockSender struct {
	mu   sync.Mutex
	sent []string
	to   []string
	fail bool
}

func (m *mockSender) Send(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("channel unavailable")
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, body)
	return nil
}

func newTestDispatcher(sender Sender) (*Dispatcher, *store.Store) {
	st := storetest.NewStore(storetest.NewFakeDriver())
	return NewDispatcher(st, sender), st
}

func TestSendAndRecord_Success(t *testing.T) {
	sender := &mockSender{}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	habitID := int32(7)
	delivered := d.SendAndRecord(context.Background(), store.NotificationReminder, 1, &habitID, "+15550001111", "hello")
	assert.True(t, delivered)
	assert.Equal(t, []string{"whatsapp:+15550001111"}, sender.to)

	records, err := st.ListNotifications(context.Background(), &store.FindNotification{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.NotificationReminder, records[0].Type)
	assert.True(t, records[0].Delivered)
}

func TestSendAndRecord_EmptyAddress(t *testing.T) {
	sender := &mockSender{}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	delivered := d.SendAndRecord(context.Background(), store.NotificationReminder, 1, nil, "", "hello")
	assert.False(t, delivered)
	assert.Empty(t, sender.sent)

	records, err := st.ListNotifications(context.Background(), &store.FindNotification{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSendAndRecord_EmptyMessage(t *testing.T) {
	sender := &mockSender{}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	delivered := d.SendAndRecord(context.Background(), store.NotificationReminder, 1, nil, "+15550001111", "")
	assert.False(t, delivered)
	assert.Empty(t, sender.sent)
}

func TestSendAndRecord_DeliveryFailureNotRecorded(t *testing.T) {
	sender := &mockSender{fail: true}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	delivered := d.SendAndRecord(context.Background(), store.NotificationStreakAlert, 1, nil, "+15550001111", "hello")
	assert.False(t, delivered)

	records, err := st.ListNotifications(context.Background(), &store.FindNotification{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSendHabitReminder_Template(t *testing.T) {
	sender := &mockSender{}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	delivered := d.SendHabitReminder(context.Background(), 1, 2, "Morning Run", "+15550001111")
	assert.True(t, delivered)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], `"Morning Run"`)
}

func TestSendStreakAlert_Template(t *testing.T) {
	sender := &mockSender{}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	delivered := d.SendStreakAlert(context.Background(), 1, 2, "Meditation", 30, "whatsapp:+15550001111")
	assert.True(t, delivered)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], `"Meditation"`)
	assert.Contains(t, sender.sent[0], "30 days")
	// Already-prefixed addresses are left alone.
	assert.Equal(t, "whatsapp:+15550001111", sender.to[0])
}

func TestSendEncouragement_FreeText(t *testing.T) {
	sender := &mockSender{}
	d, st := newTestDispatcher(sender)
	defer st.Close()

	delivered := d.SendEncouragement(context.Background(), 1, "You showed up today. That counts.", "+15550001111")
	assert.True(t, delivered)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "You showed up today. That counts.", sender.sent[0])

	records, err := st.ListNotifications(context.Background(), &store.FindNotification{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.NotificationEncouragement, records[0].Type)
	assert.Nil(t, records[0].HabitID)
}

func TestNormalizeWhatsAppAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+1555", NormalizeWhatsAppAddress("+1555"))
	assert.Equal(t, "whatsapp:+1555", NormalizeWhatsAppAddress("whatsapp:+1555"))
}
