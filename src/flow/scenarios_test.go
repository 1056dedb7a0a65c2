package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/store"
)

// harness runs a registry on an in-memory broker and listens on one outbound topic.
type harness struct {
	brk      *broker.InMemoryBroker
	registry *Registry
	journal  *store.MemoryStore
	out      <-chan broker.Message
}

func startHarness(t *testing.T, collection contracts.Collection, outTopic string) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	brk := broker.NewInMemoryBroker()
	journal := store.NewMemoryStore(100)

	out, err := brk.Subscribe(ctx, outTopic, "test-observer")
	require.NoError(t, err)

	registry, err := NewBuilder(broker.Static(brk), WithStore(journal)).BuildAndStart(ctx, collection)
	require.NoError(t, err)

	t.Cleanup(func() {
		registry.Stop()
		cancel()
		brk.Close()
	})

	return &harness{brk: brk, registry: registry, journal: journal, out: out}
}

func (h *harness) publish(t *testing.T, topic, body string) {
	t.Helper()
	require.NoError(t, h.brk.Publish(context.Background(), topic, "k1", []byte(body)))
}

func (h *harness) expect(t *testing.T) broker.Message {
	t.Helper()
	select {
	case msg := <-h.out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound message")
		return broker.Message{}
	}
}

func (h *harness) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case msg := <-h.out:
		t.Fatalf("unexpected outbound message: %s", msg.Value)
	case <-time.After(wait):
	}
}

func ordersGroup() contracts.Collection {
	return contracts.Collection{
		ordersStub: {
			triggered("create", "orders.in", contracts.Literal("CREATE"), "orders.out", "CREATED"),
		},
	}
}

func TestScenario_MatchedMessageYieldsOneResponse(t *testing.T) {
	h := startHarness(t, ordersGroup(), "orders.out")

	h.publish(t, "orders.in", "CREATE")

	msg := h.expect(t)
	assert.Equal(t, "orders.out", msg.Topic)
	assert.Equal(t, "CREATED", string(msg.Value))
	assert.Equal(t, "k1", msg.Key)
	h.expectNone(t, 50*time.Millisecond)
}

func TestScenario_UnmatchedMessageIsDropped(t *testing.T) {
	h := startHarness(t, ordersGroup(), "orders.out")

	h.publish(t, "orders.in", "DELETE")
	h.expectNone(t, 100*time.Millisecond)

	flow := h.registry.Flows()[0]
	require.Eventually(t, func() bool {
		events, err := h.journal.Recent(context.Background(), flow.Name, 10)
		return err == nil && len(events) == 1 && events[0].Kind == store.EventUnmatched
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), flow.Router.Metrics().Unmatched)
	assert.Equal(t, int64(0), flow.Router.Metrics().Sent)
}

func TestScenario_FirstMatchWins(t *testing.T) {
	collection := contracts.Collection{
		ordersStub: {
			triggered("wildcard", "orders.in", contracts.MustRegex(".*"), "orders.out", "WILDCARD"),
			triggered("create", "orders.in", contracts.Literal("CREATE"), "orders.out", "CREATED"),
		},
	}
	h := startHarness(t, collection, "orders.out")

	h.publish(t, "orders.in", "CREATE")

	msg := h.expect(t)
	assert.Equal(t, "WILDCARD", string(msg.Value))
	h.expectNone(t, 50*time.Millisecond)
}

func TestScenario_SharedDestinationAcrossStubs(t *testing.T) {
	alpha := contracts.StubIdentity{Group: "com.example", Artifact: "alpha"}
	beta := contracts.StubIdentity{Group: "com.example", Artifact: "beta"}
	collection := contracts.Collection{
		alpha: {triggered("alpha", "shared.in", contracts.Literal("A"), "shared.out", "FROM-ALPHA")},
		beta:  {triggered("beta", "shared.in", contracts.Literal("B"), "shared.out", "FROM-BETA")},
	}
	h := startHarness(t, collection, "shared.out")

	names := h.registry.Names()
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
	assert.Len(t, h.registry.ForDestination("shared.in"), 2)
	assert.Equal(t, 2, h.brk.SubscriberCount("shared.in"))

	h.publish(t, "shared.in", "A")
	assert.Equal(t, "FROM-ALPHA", string(h.expect(t).Value))
	h.expectNone(t, 50*time.Millisecond)

	h.publish(t, "shared.in", "B")
	assert.Equal(t, "FROM-BETA", string(h.expect(t).Value))
	h.expectNone(t, 50*time.Millisecond)

	alphaFlow, ok := h.registry.Get(names[0])
	require.True(t, ok)
	require.Eventually(t, func() bool {
		m := alphaFlow.Router.Metrics()
		return m.Matched == 1 && m.Unmatched == 1
	}, time.Second, 5*time.Millisecond)
}

// drain counts messages on h.out until want arrive or the deadline passes.
func (h *harness) drain(want int, deadline time.Duration) int {
	timeout := time.After(deadline)
	got := 0
	for got < want {
		select {
		case <-h.out:
			got++
		case <-timeout:
			return got
		}
	}
	return got
}

func TestScenario_BurstBeyondSubscriberBuffer(t *testing.T) {
	h := startHarness(t, ordersGroup(), "orders.out")
	const total = 400

	go func() {
		for i := 0; i < total; i++ {
			if err := h.brk.Publish(context.Background(), "orders.in", "k", []byte("CREATE")); err != nil {
				return
			}
		}
	}()

	assert.Equal(t, total, h.drain(total, 10*time.Second))

	flow := h.registry.Flows()[0]
	require.Eventually(t, func() bool {
		return flow.Router.Metrics().Sent == total
	}, 2*time.Second, 5*time.Millisecond)
	m := flow.Router.Metrics()
	assert.Equal(t, int64(total), m.Received)
	assert.Equal(t, int64(0), m.SendErrors)
}

func TestScenario_ChainedFlows(t *testing.T) {
	collection := contracts.Collection{
		ordersStub: {
			triggered("hop", "chain.a", contracts.Literal("START"), "chain.b", "HOP"),
			triggered("finish", "chain.b", contracts.Literal("HOP"), "chain.c", "DONE"),
		},
	}
	h := startHarness(t, collection, "chain.c")
	require.Equal(t, 2, h.registry.Len())
	const total = 250

	go func() {
		for i := 0; i < total; i++ {
			if err := h.brk.Publish(context.Background(), "chain.a", "k", []byte("START")); err != nil {
				return
			}
		}
	}()

	assert.Equal(t, total, h.drain(total, 10*time.Second))
	for _, f := range h.registry.Flows() {
		f := f
		require.Eventually(t, func() bool {
			return f.Router.Metrics().Sent == total
		}, 2*time.Second, 5*time.Millisecond, f.Name)
	}
}
