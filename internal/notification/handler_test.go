package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liveshop-shipping/internal/email"
	"github.com/example/liveshop-shipping/internal/events"
)

type sent struct {
	to     string
	notice email.ShipmentNotice
}

type fakeMailer struct {
	sent []sent
	fail map[string]error
}

func (m *fakeMailer) SendShipmentNotice(to string, n email.ShipmentNotice) error {
	if err := m.fail[to]; err != nil {
		return err
	}
	m.sent = append(m.sent, sent{to: to, notice: n})
	return nil
}

func makeEvent(t *testing.T, eventType events.Type, data any) []byte {
	t.Helper()
	e, err := events.New(eventType, "bundle-1", data)
	require.NoError(t, err)
	value, err := json.Marshal(e)
	require.NoError(t, err)
	return value
}

func TestHandleEvent_LabelPurchased_GroupsByCustomer(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer)

	value := makeEvent(t, events.LabelPurchased, events.LabelData{
		LabelID:        "bundle-1",
		TrackingNumber: "TRK-1",
		Carrier:        "usps",
		Applied:        []string{"o1", "o2", "o3"},
		Recipients: []events.Recipient{
			{OrderID: "o1", Name: "Ana", Email: "ana@example.com"},
			{OrderID: "o2", Name: "Ana", Email: "ana@example.com"},
			{OrderID: "o3", Name: "Ben", Email: "ben@example.com"},
		},
	})

	require.NoError(t, h.HandleEvent(context.Background(), nil, value))

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "ana@example.com", mailer.sent[0].to)
	assert.Equal(t, []string{"o1", "o2"}, mailer.sent[0].notice.OrderIDs)
	assert.Equal(t, "TRK-1", mailer.sent[0].notice.TrackingNumber)
	assert.Equal(t, "ben@example.com", mailer.sent[1].to)
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer)

	value := makeEvent(t, events.LabelUnapplied, events.LabelData{
		TrackingNumber: "TRK-1",
		Recipients:     []events.Recipient{{OrderID: "o1", Email: "ana@example.com"}},
	})

	require.NoError(t, h.HandleEvent(context.Background(), nil, value))
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_SkipsMissingEmail(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer)

	value := makeEvent(t, events.LabelPurchased, events.LabelData{
		TrackingNumber: "TRK-1",
		Recipients:     []events.Recipient{{OrderID: "o1", Name: "No Mail"}},
	})

	require.NoError(t, h.HandleEvent(context.Background(), nil, value))
	assert.Empty(t, mailer.sent)
}

func TestHandleEvent_ReportsFailuresAfterTryingEveryone(t *testing.T) {
	smtpDown := errors.New("smtp: connection refused")
	mailer := &fakeMailer{fail: map[string]error{"ana@example.com": smtpDown}}
	h := NewHandler(mailer)

	value := makeEvent(t, events.LabelPurchased, events.LabelData{
		TrackingNumber: "TRK-1",
		Recipients: []events.Recipient{
			{OrderID: "o1", Email: "ana@example.com"},
			{OrderID: "o2", Email: "ben@example.com"},
		},
	})

	err := h.HandleEvent(context.Background(), nil, value)

	assert.ErrorIs(t, err, smtpDown)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ben@example.com", mailer.sent[0].to)
}

func TestHandleEvent_InvalidJSON(t *testing.T) {
	h := NewHandler(&fakeMailer{})
	assert.Error(t, h.HandleEvent(context.Background(), nil, []byte("not json")))
}
