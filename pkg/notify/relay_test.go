package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/modelstore/pkg/branch"
	"github.com/oneconcern/modelstore/pkg/commitgraph"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"github.com/oneconcern/modelstore/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type published struct {
	subject string
	msg     Message
}

// fakePublisher records messages
type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	fail     bool
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("publish failed")
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	p.messages = append(p.messages, published{subject: subject, msg: msg})
	return nil
}

func (p *fakePublisher) get() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.messages...)
}

type fixture struct {
	coord *branch.Coordinator
	graph *commitgraph.Graph
	pub   *fakePublisher
	relay *Relay
}

func setupRelay(t testing.TB) fixture {
	t.Helper()

	objects, err := objectstore.New(memory.New())
	require.NoError(t, err)
	graph, err := commitgraph.Open(context.Background(), objects)
	require.NoError(t, err)
	coord := branch.New(objects, graph)
	pub := &fakePublisher{}
	return fixture{
		coord: coord,
		graph: graph,
		pub:   pub,
		relay: New(coord, pub),
	}
}

func (f fixture) commit(t testing.TB, root string, parents ...model.Hash) model.Hash {
	t.Helper()

	id, err := f.graph.CreateCommit(context.Background(), parents, model.Digest([]byte(root)), root)
	require.NoError(t, err)
	return id
}

func TestRelayUpdates(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := setupRelay(t)

	h0 := f.commit(t, "H0")
	h1 := f.commit(t, "H1", h0)
	h2 := f.commit(t, "H2", h1)
	_, err := f.coord.Create(ctx, "master", branch.WithHead(h0))
	require.NoError(t, err)

	require.NoError(t, f.relay.Watch(ctx, "master"))
	require.NoError(t, f.relay.Watch(ctx, "master"))
	assert.Equal(t, []string{"master"}, f.relay.Watched())
	assert.Equal(t, 1, f.coord.Pending("master"))
	assert.Empty(t, f.pub.get())

	require.NoError(t, f.coord.UpdateHead(ctx, "master", h1, h0))
	require.NoError(t, f.coord.UpdateHead(ctx, "master", h2, h1))

	messages := f.pub.get()
	require.Len(t, messages, 2)
	for i, head := range []model.Hash{h1, h2} {
		assert.Equal(t, "modelstore.branches.master", messages[i].subject)
		assert.Equal(t, model.BranchKey("master"), messages[i].msg.ID)
		assert.Equal(t, model.BranchType, messages[i].msg.Type)
		assert.Equal(t, head, messages[i].msg.Branch().Head)
		assert.False(t, messages[i].msg.Deleted)
	}
	assert.Equal(t, 1, f.coord.Pending("master"))

	assert.True(t, f.relay.Unwatch("master"))
	assert.False(t, f.relay.Unwatch("master"))
	assert.Zero(t, f.coord.Pending("master"))
}

func TestRelayDeletion(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := setupRelay(t)
	f.relay = New(f.coord, f.pub, WithSubjectPrefix("test"))

	_, err := f.coord.Create(ctx, "dev")
	require.NoError(t, err)
	require.NoError(t, f.relay.Watch(ctx, "dev"))

	require.NoError(t, f.coord.Delete(ctx, "dev"))
	messages := f.pub.get()
	require.Len(t, messages, 1)
	assert.Equal(t, "test.dev", messages[0].subject)
	assert.True(t, messages[0].msg.Deleted)
	assert.Empty(t, f.relay.Watched())
}

func TestRelayEveryUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := setupRelay(t)

	heads := []model.Hash{f.commit(t, "0")}
	for i := 1; i < 50; i++ {
		heads = append(heads, f.commit(t, string(rune('a'+i)), heads[i-1]))
	}
	_, err := f.coord.Create(ctx, "master", branch.WithHead(heads[0]))
	require.NoError(t, err)
	require.NoError(t, f.relay.Watch(ctx, "master"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i < len(heads); i++ {
			_ = f.coord.UpdateHead(ctx, "master", heads[i], heads[i-1])
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("updates did not complete")
	}

	// every update is relayed, in order, since the subscription is re-armed from the last published head
	messages := f.pub.get()
	require.Len(t, messages, len(heads)-1)
	for i, m := range messages {
		assert.Equal(t, heads[i+1], m.msg.Branch().Head)
	}
	f.relay.Close()
	assert.Zero(t, f.coord.Pending("master"))
	assert.ErrorIs(t, f.relay.Watch(ctx, "master"), ErrClosed)
}

func TestRelayPublishFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	f := setupRelay(t)
	f.pub.fail = true

	h0 := f.commit(t, "H0")
	_, err := f.coord.Create(ctx, "master")
	require.NoError(t, err)
	require.NoError(t, f.relay.Watch(ctx, "master"))

	require.NoError(t, f.coord.UpdateHead(ctx, "master", h0, ""))
	// still watching
	assert.Equal(t, 1, f.coord.Pending("master"))
	f.relay.Close()
}

func TestWatchUnknownBranch(t *testing.T) {
	f := setupRelay(t)
	err := f.relay.Watch(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, branch.ErrBranchNotFound))
	assert.Empty(t, f.relay.Watched())
}
