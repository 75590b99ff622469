package signal

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_EmitInConnectionOrder(t *testing.T) {
	var sig Signal[int]
	var got []string

	sig.Connect(func(v int) { got = append(got, "a") })
	sig.Connect(func(v int) { got = append(got, "b") })
	sig.Connect(func(v int) { got = append(got, "c") })

	sig.Emit(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSignal_Disconnect(t *testing.T) {
	var sig Signal[string]
	calls := 0
	tok := sig.Connect(func(string) { calls++ })

	sig.Emit("x")
	sig.Disconnect(tok)
	sig.Emit("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, sig.Len())
}

func TestSignal_DisconnectDuringEmitUsesSnapshot(t *testing.T) {
	var sig Signal[int]
	var second Token
	var got []string

	sig.Connect(func(int) {
		got = append(got, "first")
		sig.Disconnect(second)
	})
	second = sig.Connect(func(int) { got = append(got, "second") })

	sig.Emit(1)
	assert.Equal(t, []string{"first", "second"}, got, "snapshot still delivers to second")

	got = nil
	sig.Emit(2)
	assert.Equal(t, []string{"first"}, got)
}

func TestSignal_QueuedDeliveryIsFIFOAndNotReentrant(t *testing.T) {
	loop := NewLoop()
	defer loop.Close()

	var sig Signal[int]
	var mu sync.Mutex
	var got []int

	sig.Connect(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
	}, Queued(loop))

	// park the loop so nothing queued can run yet
	release := make(chan struct{})
	loop.Post(func() { <-release })

	for i := 0; i < 5; i++ {
		sig.Emit(i)
	}
	mu.Lock()
	assert.Empty(t, got, "queued slot ran on the emitter stack")
	mu.Unlock()

	close(release)
	loop.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

type weakOwner struct {
	name  string
	bytes [64]byte
}

func TestConnectWeak_DropsCollectedOwner(t *testing.T) {
	var sig Signal[int]
	var calls atomic.Int32

	func() {
		owner := &weakOwner{name: "view"}
		ConnectWeak(&sig, owner, func(o *weakOwner, v int) {
			calls.Add(1)
		})
		sig.Emit(1)
	}()
	require.Equal(t, int32(1), calls.Load())

	runtime.GC()
	runtime.GC()

	sig.Emit(2)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, sig.Len())
}

func TestConnectWeak_LiveOwnerReceives(t *testing.T) {
	var sig Signal[string]
	owner := &weakOwner{}

	ConnectWeak(&sig, owner, func(o *weakOwner, v string) { o.name = v })
	sig.Emit("hello")

	assert.Equal(t, "hello", owner.name)
	runtime.KeepAlive(owner)
}

func TestLoop_PostAfterClose(t *testing.T) {
	loop := NewLoop()
	loop.Close()
	assert.False(t, loop.Post(func() {}))
	loop.Flush()
}

func TestLoop_RecoversFromPanic(t *testing.T) {
	loop := NewLoop()
	defer loop.Close()

	ran := false
	loop.Post(func() { panic("boom") })
	loop.Post(func() { ran = true })
	loop.Flush()

	assert.True(t, ran)
}
