package events_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/stretchr/testify/require"
)

// fakeBus is an in-process Subscriber that delivers messages synchronously.
type fakeBus struct {
	subs map[string]func(msg *events.Message)
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string]func(msg *events.Message))}
}

func (f *fakeBus) Subscribe(subject string, handler func(msg *events.Message)) error {
	f.subs[subject] = handler
	return nil
}

func (f *fakeBus) QueueSubscribe(subject, _ string, handler func(msg *events.Message)) error {
	f.subs[subject] = handler
	return nil
}

func (f *fakeBus) Close() error { return nil }

func (f *fakeBus) deliver(subject string, data []byte) {
	if h, ok := f.subs[subject]; ok {
		h(&events.Message{Subject: subject, Data: data, Timestamp: time.Now(), ID: "msg-1"})
	}
}

func TestDispatcherRouting(t *testing.T) {
	bus := newFakeBus()
	d := events.NewDispatcher(bus, "workers")

	var got []string
	require.NoError(t, d.Handle("a.created", func(_ context.Context, msg *events.Message) error {
		got = append(got, "a:"+string(msg.Data))
		return nil
	}))
	require.NoError(t, d.Handle("b.deleted", func(_ context.Context, msg *events.Message) error {
		got = append(got, "b:"+string(msg.Data))
		return nil
	}))
	require.NoError(t, d.Start())

	bus.deliver("a.created", []byte("1"))
	bus.deliver("b.deleted", []byte("2"))
	bus.deliver("a.created", []byte("3"))

	require.Equal(t, []string{"a:1", "b:2", "a:3"}, got)
}

func TestDispatcherDuplicateRegistration(t *testing.T) {
	d := events.NewDispatcher(newFakeBus(), "workers")

	noop := func(context.Context, *events.Message) error { return nil }
	require.NoError(t, d.Handle("a.created", noop))
	require.Error(t, d.Handle("a.created", noop))
}

func TestDispatcherRegistrationAfterStart(t *testing.T) {
	d := events.NewDispatcher(newFakeBus(), "workers")
	require.NoError(t, d.Start())

	err := d.Handle("a.created", func(context.Context, *events.Message) error { return nil })
	require.Error(t, err)
}

func TestDispatcherSwallowsHandlerError(t *testing.T) {
	bus := newFakeBus()
	d := events.NewDispatcher(bus, "workers")

	calls := 0
	require.NoError(t, d.Handle("a.created", func(context.Context, *events.Message) error {
		calls++
		return fmt.Errorf("handler failure")
	}))
	require.NoError(t, d.Start())

	// A failing handler never halts dispatch of subsequent events.
	bus.deliver("a.created", []byte("1"))
	bus.deliver("a.created", []byte("2"))
	require.Equal(t, 2, calls)
}

func TestDispatcherRecoversPanic(t *testing.T) {
	bus := newFakeBus()
	d := events.NewDispatcher(bus, "workers")

	calls := 0
	require.NoError(t, d.Handle("a.created", func(context.Context, *events.Message) error {
		calls++
		if calls == 1 {
			panic("handler bug")
		}
		return nil
	}))
	require.NoError(t, d.Start())

	require.NotPanics(t, func() { bus.deliver("a.created", []byte("1")) })
	bus.deliver("a.created", []byte("2"))
	require.Equal(t, 2, calls)
}
