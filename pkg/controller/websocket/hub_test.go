package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

func newTestClient(h *Hub, hospitalID types.HospitalID, userID types.UserID) *Client {
	return &Client{
		hub:        h,
		send:       make(chan []byte, clientSendBufferSize),
		hospitalID: hospitalID,
		userID:     userID,
	}
}

func recvPayload(t *testing.T, c *Client) *alert.Alert {
	t.Helper()
	select {
	case payload := <-c.send:
		var a alert.Alert
		gt.NoError(t, json.Unmarshal(payload, &a))
		return &a
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected broadcast: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubScopesBroadcastsByHospital(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx)
	go hub.Run()
	defer hub.Stop()

	ward := newTestClient(hub, "h-1", "rn-1")
	other := newTestClient(hub, "h-2", "rn-9")
	admin := newTestClient(hub, types.EmptyHospitalID, "adm-1")

	hub.register <- ward
	hub.register <- other
	hub.register <- admin

	a := alert.New(ctx, "h-1", "op-1", alert.CreateInput{
		RoomNumber: "301", Type: types.AlertTypeFall, Urgency: 2,
	})
	hub.Publish(clock.With(ctx, time.Now), &a)

	got := recvPayload(t, ward)
	gt.Value(t, got.ID).Equal(a.ID)
	gt.Value(t, got.HospitalID).Equal(types.HospitalID("h-1"))

	gt.Value(t, recvPayload(t, admin).ID).Equal(a.ID)
	expectSilence(t, other)
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx)
	go hub.Run()
	defer hub.Stop()

	ward := newTestClient(hub, "h-1", "rn-1")
	hub.register <- ward
	hub.unregister <- ward

	// the hub closed the send channel on unregister
	select {
	case _, ok := <-ward.send:
		gt.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
	gt.Value(t, hub.ClientCount()).Equal(0)
}
