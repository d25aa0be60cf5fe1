package mem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/transport"
)

func newPair(t *testing.T, ctx *Context, a, b transport.Type, endpoint string) (transport.Socket, transport.Socket) {
	t.Helper()

	sa, err := ctx.NewSocket(a)
	require.NoError(t, err)
	sb, err := ctx.NewSocket(b)
	require.NoError(t, err)

	require.NoError(t, sa.Bind(endpoint))
	require.NoError(t, sb.Connect(endpoint))
	return sa, sb
}

func TestPairDelivery(t *testing.T) {
	tctx := NewContext()
	a, b := newPair(t, tctx, transport.Pair, transport.Pair, "inproc://pair")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, a.SendMultipart(ctx, [][]byte{[]byte("topic"), []byte("payload")}))

	parts, err := b.RecvMultipart(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "topic", string(parts[0]))
	assert.Equal(t, "payload", string(parts[1]))

	// The link is symmetric.
	require.NoError(t, b.SendMultipart(ctx, [][]byte{[]byte("back")}))
	parts, err = a.RecvMultipart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "back", string(parts[0]))
}

func TestBindInUse(t *testing.T) {
	tctx := NewContext()

	a, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	b, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)

	require.NoError(t, a.Bind("inproc://taken"))
	assert.ErrorIs(t, b.Bind("inproc://taken"), cerrors.ErrEndpointInUse)

	// Unbinding frees the endpoint for the next binder.
	require.NoError(t, a.Unbind("inproc://taken"))
	require.NoError(t, b.Bind("inproc://taken"))
}

func TestUnbindNeverBoundFails(t *testing.T) {
	tctx := NewContext()
	s, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Unbind("inproc://nope"), cerrors.ErrNotLinked)
	assert.ErrorIs(t, s.Disconnect("inproc://nope"), cerrors.ErrNotLinked)
}

func TestInvalidSocketType(t *testing.T) {
	tctx := NewContext()
	_, err := tctx.NewSocket(transport.Type(99))
	assert.ErrorIs(t, err, cerrors.ErrUnsupportedSocket)
}

func TestSubTopicFilter(t *testing.T) {
	tctx := NewContext()

	pub, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	sub, err := tctx.NewSocket(transport.Sub)
	require.NoError(t, err)

	require.NoError(t, pub.Bind("inproc://feed"))
	require.NoError(t, sub.Subscribe([]byte("match")))
	require.NoError(t, sub.Connect("inproc://feed"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("other"), []byte("dropped")}))
	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("match.sub"), []byte("prefix hit")}))
	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("match"), []byte("exact hit")}))

	parts, err := sub.RecvMultipart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "prefix hit", string(parts[1]))

	parts, err = sub.RecvMultipart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exact hit", string(parts[1]))
}

func TestSubEmptyTopicMatchesAll(t *testing.T) {
	tctx := NewContext()

	pub, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	sub, err := tctx.NewSocket(transport.Sub)
	require.NoError(t, err)

	require.NoError(t, pub.Bind("inproc://feed"))
	require.NoError(t, sub.Subscribe([]byte{}))
	require.NoError(t, sub.Connect("inproc://feed"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("anything"), []byte("x")}))

	parts, err := sub.RecvMultipart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", string(parts[1]))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	tctx := NewContext()

	pub, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	sub, err := tctx.NewSocket(transport.Sub)
	require.NoError(t, err)

	require.NoError(t, pub.Bind("inproc://feed"))
	require.NoError(t, sub.Subscribe([]byte("t")))
	require.NoError(t, sub.Connect("inproc://feed"))
	require.NoError(t, sub.Unsubscribe([]byte("t")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("t"), []byte("x")}))

	short, shortCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer shortCancel()
	_, err = sub.RecvMultipart(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPubFanOut(t *testing.T) {
	tctx := NewContext()

	pub, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	require.NoError(t, pub.Bind("inproc://feed"))

	subs := make([]transport.Socket, 3)
	for i := range subs {
		s, err := tctx.NewSocket(transport.Sub)
		require.NoError(t, err)
		require.NoError(t, s.Subscribe([]byte{}))
		require.NoError(t, s.Connect("inproc://feed"))
		subs[i] = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("t"), []byte("x")}))

	for _, s := range subs {
		parts, err := s.RecvMultipart(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x", string(parts[1]))
	}
}

func TestPubWithoutSubscribersDrops(t *testing.T) {
	tctx := NewContext()

	pub, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	require.NoError(t, pub.Bind("inproc://feed"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pub.SendMultipart(ctx, [][]byte{[]byte("t"), []byte("x")}))
}

func TestPushRoundRobin(t *testing.T) {
	tctx := NewContext()

	push, err := tctx.NewSocket(transport.Push)
	require.NoError(t, err)
	require.NoError(t, push.Bind("inproc://work"))

	pulls := make([]transport.Socket, 2)
	for i := range pulls {
		s, err := tctx.NewSocket(transport.Pull)
		require.NoError(t, err)
		require.NoError(t, s.Connect("inproc://work"))
		pulls[i] = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const total = 40
	for i := 0; i < total; i++ {
		require.NoError(t, push.SendMultipart(ctx, [][]byte{{byte(i)}}))
	}

	// Each message goes to exactly one puller; both get work over time.
	counts := make([]int, len(pulls))
	seen := make(map[byte]bool)
	for received := 0; received < total; {
		for i, s := range pulls {
			short, shortCancel := context.WithTimeout(ctx, 20*time.Millisecond)
			parts, err := s.RecvMultipart(short)
			shortCancel()
			if err != nil {
				continue
			}
			require.False(t, seen[parts[0][0]], "message delivered twice")
			seen[parts[0][0]] = true
			counts[i]++
			received++
		}
	}

	assert.Equal(t, total, counts[0]+counts[1])
	assert.Positive(t, counts[0])
	assert.Positive(t, counts[1])
}

func TestMessageIsolation(t *testing.T) {
	tctx := NewContext()
	a, b := newPair(t, tctx, transport.Pair, transport.Pair, "inproc://iso")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	payload := []byte("original")
	require.NoError(t, a.SendMultipart(ctx, [][]byte{payload}))
	payload[0] = 'X'

	parts, err := b.RecvMultipart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "original", string(parts[0]), "sent parts must be copied, not aliased")
}

func TestClosedSocketRejectsIO(t *testing.T) {
	tctx := NewContext()
	s, err := tctx.NewSocket(transport.Pair)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	ctx := context.Background()
	assert.ErrorIs(t, s.SendMultipart(ctx, [][]byte{[]byte("x")}), cerrors.ErrSocketClosed)
	_, err = s.RecvMultipart(ctx)
	assert.ErrorIs(t, err, cerrors.ErrSocketClosed)
}

func TestCloseLeavesHubs(t *testing.T) {
	tctx := NewContext()

	a, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	require.NoError(t, a.Bind("inproc://x"))
	require.NoError(t, a.Close())

	// The binder slot is released on close.
	b, err := tctx.NewSocket(transport.Pub)
	require.NoError(t, err)
	require.NoError(t, b.Bind("inproc://x"))
}

func TestTerminatedContextRejectsNewSockets(t *testing.T) {
	tctx := NewContext()
	require.NoError(t, tctx.Term())

	_, err := tctx.NewSocket(transport.Pair)
	assert.ErrorIs(t, err, cerrors.ErrSocketClosed)
}

func TestFactory(t *testing.T) {
	c, err := Factory()
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NoError(t, c.Term())
}
