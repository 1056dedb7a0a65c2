package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/logger"
	"stubrunner-agent/src/store"
)

type sent struct {
	topic string
	msg   broker.Message
}

type recordingSender struct {
	mu    sync.Mutex
	sends []sent
	err   error
	block chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, topic string, msg broker.Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sends = append(s.sends, sent{topic: topic, msg: msg})
	return nil
}

func (s *recordingSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sends...)
}

func ordersContract(name, in, out string) contracts.Contract {
	return contracts.Contract{
		Name:   name,
		Input:  contracts.Input{From: contracts.At("orders.in"), Body: contracts.Literal(in)},
		Output: contracts.Output{SentTo: contracts.At("orders.out"), Body: out},
	}
}

func newRouter(sender Sender, st store.Store, log logger.Logger, group ...contracts.Contract) *Router {
	return New(Config{
		Name:        "com.example_orders_orders.in_deadbeef",
		Destination: "orders.in",
		Contracts:   group,
		Sender:      sender,
		Logger:      log,
		Store:       st,
	})
}

func TestRouter_MatchedMessageSendsExactlyOnce(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemoryStore(10)
	r := newRouter(sender, st, nil, ordersContract("create", "CREATE", "CREATED"))

	err := r.OnMessage(context.Background(), broker.Message{Topic: "orders.in", Value: []byte("CREATE")})
	require.NoError(t, err)

	sends := sender.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "orders.out", sends[0].topic)
	assert.Equal(t, "CREATED", string(sends[0].msg.Value))

	m := r.Metrics()
	assert.Equal(t, MetricsSnapshot{Received: 1, Matched: 1, Sent: 1}, m)

	events, _ := st.Recent(context.Background(), "", 0)
	require.Len(t, events, 1)
	assert.Equal(t, store.EventMatched, events[0].Kind)
	assert.Equal(t, "create", events[0].Contract)
}

func TestRouter_NoMatchDropsAndReports(t *testing.T) {
	sender := &recordingSender{}
	st := store.NewMemoryStore(10)
	log := logger.NewMemoryLogger()
	r := newRouter(sender, st, log, ordersContract("create", "CREATE", "CREATED"))

	err := r.OnMessage(context.Background(), broker.Message{Topic: "orders.in", Value: []byte("DELETE")})
	require.NoError(t, err)

	assert.Empty(t, sender.all())
	assert.Equal(t, int64(1), r.Metrics().Unmatched)
	assert.True(t, log.Contains("WARN", "no contract matched"))

	counts, _ := st.Counts(context.Background(), "")
	assert.Equal(t, 1, counts[store.EventUnmatched])
}

func TestRouter_SendErrorIsSurfacedAndRouterKeepsWorking(t *testing.T) {
	boom := errors.New("broker unavailable")
	sender := &recordingSender{err: boom}
	st := store.NewMemoryStore(10)
	r := newRouter(sender, st, logger.NewMemoryLogger(), ordersContract("create", "CREATE", "CREATED"))

	err := r.OnMessage(context.Background(), broker.Message{Value: []byte("CREATE")})
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "orders.out", sendErr.Destination)
	assert.Equal(t, "create", sendErr.Contract)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), r.Metrics().SendErrors)

	// Recovered broker: subsequent messages are handled normally.
	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	require.NoError(t, r.OnMessage(context.Background(), broker.Message{Value: []byte("CREATE")}))
	assert.Len(t, sender.all(), 1)

	counts, _ := st.Counts(context.Background(), "")
	assert.Equal(t, 1, counts[store.EventSendError])
	assert.Equal(t, 1, counts[store.EventMatched])
}

func TestRouter_FirstMatchPrecedence(t *testing.T) {
	sender := &recordingSender{}
	wildcard := contracts.Contract{
		Name:   "wildcard",
		Input:  contracts.Input{From: contracts.At("orders.in"), Body: contracts.MustRegex(".*")},
		Output: contracts.Output{SentTo: contracts.At("orders.any"), Body: "ANY"},
	}
	r := newRouter(sender, nil, nil, wildcard, ordersContract("create", "CREATE", "CREATED"))

	require.NoError(t, r.OnMessage(context.Background(), broker.Message{Value: []byte("CREATE")}))

	sends := sender.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "orders.any", sends[0].topic)
	assert.Equal(t, "ANY", string(sends[0].msg.Value))
}

func TestRouter_EchoHeadersAndKey(t *testing.T) {
	sender := &recordingSender{}
	c := ordersContract("create", "CREATE", "CREATED")
	c.Output.Headers = map[string]string{"type": "ack", "correlation-id": "static"}
	c.Output.EchoHeaders = map[string]string{"correlation-id": "request-id"}
	r := newRouter(sender, nil, nil, c)

	in := broker.Message{Key: "order-7", Value: []byte("CREATE"), Headers: map[string]string{"request-id": "abc"}}
	require.NoError(t, r.OnMessage(context.Background(), in))

	sends := sender.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "order-7", sends[0].msg.Key)
	assert.Equal(t, map[string]string{"type": "ack", "correlation-id": "abc"}, sends[0].msg.Headers)
}

func TestRouter_DelayHonorsContext(t *testing.T) {
	sender := &recordingSender{}
	c := ordersContract("slow", "CREATE", "CREATED")
	c.Output.Delay = time.Hour
	r := newRouter(sender, nil, nil, c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.OnMessage(ctx, broker.Message{Value: []byte("CREATE")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, sender.all())
}

func TestRouter_DelayIsApplied(t *testing.T) {
	sender := &recordingSender{}
	c := ordersContract("delayed", "CREATE", "CREATED")
	c.Output.Delay = 30 * time.Millisecond
	r := newRouter(sender, nil, nil, c)

	start := time.Now()
	require.NoError(t, r.OnMessage(context.Background(), broker.Message{Value: []byte("CREATE")}))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Len(t, sender.all(), 1)
}

func TestRouter_StateTransitions(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	r := newRouter(sender, nil, nil, ordersContract("create", "CREATE", "CREATED"))
	assert.Equal(t, Idle, r.State())

	done := make(chan error, 1)
	go func() {
		done <- r.OnMessage(context.Background(), broker.Message{Value: []byte("CREATE")})
	}()

	require.Eventually(t, func() bool { return r.State() == Active }, time.Second, 5*time.Millisecond)

	close(sender.block)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, r.State())
}

func TestRouter_ContractsAreImmutable(t *testing.T) {
	group := []contracts.Contract{ordersContract("create", "CREATE", "CREATED")}
	r := newRouter(&recordingSender{}, nil, nil, group...)

	group[0].Name = "mutated"
	got := r.Contracts()
	got[0].Name = "mutated-again"

	assert.Equal(t, "create", r.Contracts()[0].Name)
}

func TestRouter_ConcurrentMessages(t *testing.T) {
	sender := &recordingSender{}
	r := newRouter(sender, store.NewMemoryStore(0), nil,
		ordersContract("create", "CREATE", "CREATED"),
		ordersContract("delete", "DELETE", "DELETED"),
	)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := "CREATE"
			if i%2 == 1 {
				body = "NOPE"
			}
			_ = r.OnMessage(context.Background(), broker.Message{Value: []byte(body)})
		}(i)
	}
	wg.Wait()

	m := r.Metrics()
	assert.Equal(t, int64(50), m.Received)
	assert.Equal(t, int64(25), m.Sent)
	assert.Equal(t, int64(25), m.Unmatched)
	assert.Len(t, sender.all(), 25)
}

func TestRouter_NoSender(t *testing.T) {
	r := newRouter(nil, nil, nil, ordersContract("create", "CREATE", "CREATED"))
	err := r.OnMessage(context.Background(), broker.Message{Value: []byte("CREATE")})

	var sendErr *SendError
	assert.ErrorAs(t, err, &sendErr)
}
