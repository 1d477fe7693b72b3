package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGroupName(t *testing.T) {
	assert.Equal(t, "tenant_5", GroupName(5))
	assert.Equal(t, "tenant_0", GroupName(0))
}

func TestIdentity_Groups(t *testing.T) {
	id := Identity{UserCode: "kasa1", SubeIDs: []int64{5, 7}}

	assert.Equal(t, []string{"tenant_5", "tenant_7"}, id.Groups())

	assert.Empty(t, Identity{UserCode: "kasa2"}.Groups())
}

func connect(h *Hub, subeIDs ...int64) *Client {
	client := newClient(h, nil, Identity{UserCode: "kasa1", SubeIDs: subeIDs})
	h.register(client)

	return client
}

func TestHub_RegisterJoinsGroups(t *testing.T) {
	h := New(zap.NewNop())

	client := connect(h, 5, 7)

	assert.Equal(t, 1, h.ClientCount())
	assert.Equal(t, 1, h.GroupSize("tenant_5"))
	assert.Equal(t, 1, h.GroupSize("tenant_7"))
	assert.Equal(t, 0, h.GroupSize("tenant_9"))

	h.unregister(client)

	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.GroupSize("tenant_5"))
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := New(zap.NewNop())

	client := connect(h, 5)

	h.unregister(client)
	h.unregister(client)

	assert.Equal(t, 0, h.ClientCount())
}

func drainFrame(t *testing.T, client *Client) serverFrame {
	t.Helper()

	select {
	case raw := <-client.send:
		var frame serverFrame
		require.NoError(t, json.Unmarshal(raw, &frame))

		return frame
	default:
		t.Fatal("expected a frame in the send buffer")

		return serverFrame{}
	}
}

func TestHub_BroadcastToGroupReachesMembersOnly(t *testing.T) {
	h := New(zap.NewNop())

	member := connect(h, 5)
	outsider := connect(h, 7)

	require.NoError(t, h.BroadcastToGroup("tenant_5", EventStokHareketCreated, map[string]any{"id": 101}))

	frame := drainFrame(t, member)
	assert.Equal(t, EventStokHareketCreated, frame.Event)

	assert.Empty(t, outsider.send)
}

func TestHub_BroadcastToUnknownGroupIsNoop(t *testing.T) {
	h := New(zap.NewNop())

	client := connect(h, 5)

	require.NoError(t, h.BroadcastToGroup("tenant_9", EventStokHareketCreated, nil))

	assert.Empty(t, client.send)
}

func TestHub_BroadcastToAllReachesEveryone(t *testing.T) {
	h := New(zap.NewNop())

	scoped := connect(h, 5)
	unscoped := connect(h)

	require.NoError(t, h.BroadcastToAll(EventStokHareketReceived, map[string]any{"id": 101}))

	assert.Equal(t, EventStokHareketReceived, drainFrame(t, scoped).Event)
	assert.Equal(t, EventStokHareketReceived, drainFrame(t, unscoped).Event)
}

func TestHub_FullBufferDropsFrameWithoutBlocking(t *testing.T) {
	h := New(zap.NewNop())

	client := connect(h, 5)

	for i := 0; i < sendBufferSize; i++ {
		client.send <- []byte("{}")
	}

	// Must return instead of blocking on the stalled client.
	require.NoError(t, h.BroadcastToGroup("tenant_5", EventStokHareketCreated, nil))

	assert.Len(t, client.send, sendBufferSize)
}

func TestClient_InvokePing(t *testing.T) {
	h := New(zap.NewNop())
	client := newClient(h, nil, Identity{UserCode: "kasa1"})

	resp := client.invoke(invokeRequest{ID: "1", Method: "Ping"})

	assert.Equal(t, "1", resp.ID)
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Result.(string), "Pong from server at ")
}

func TestClient_InvokeGetMyGroups(t *testing.T) {
	h := New(zap.NewNop())
	client := newClient(h, nil, Identity{UserCode: "kasa1", SubeIDs: []int64{5, 7}})

	resp := client.invoke(invokeRequest{ID: "2", Method: "GetMyGroups"})

	require.Empty(t, resp.Error)

	info, ok := resp.Result.(groupInfo)
	require.True(t, ok)

	assert.Equal(t, "kasa1", info.UserCode)
	assert.Equal(t, []int64{5, 7}, info.SubeIDs)
	assert.Equal(t, []string{"tenant_5", "tenant_7"}, info.Groups)
	assert.Equal(t, client.ID().String(), info.ConnectionID)
}

func TestClient_InvokeUnknownMethod(t *testing.T) {
	h := New(zap.NewNop())
	client := newClient(h, nil, Identity{UserCode: "kasa1"})

	resp := client.invoke(invokeRequest{ID: "3", Method: "Teleport"})

	assert.Equal(t, "3", resp.ID)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.Result)
}
