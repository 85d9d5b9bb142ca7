package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus()

	var got []string
	b.Subscribe(func(ev Event) { got = append(got, "first:"+ev.Kind.String()) })
	b.Subscribe(func(ev Event) { got = append(got, "second:"+ev.Kind.String()) })

	b.Emit(Blur)
	assert.Equal(t, []string{"first:blur", "second:blur"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()

	var n int
	unsubscribe := b.Subscribe(func(Event) { n++ })
	b.Emit(Hidden)
	unsubscribe()
	b.Emit(Hidden)
	assert.Equal(t, 1, n)
}

func TestBus_ConnectivityTransitionsOnly(t *testing.T) {
	b := NewBus()
	assert.True(t, b.Online())

	var kinds []Kind
	b.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	b.Emit(Online) // already online
	b.Emit(Offline)
	b.Emit(Offline)
	assert.False(t, b.Online())
	b.Emit(Online)

	assert.Equal(t, []Kind{Offline, Online}, kinds)
}

func TestBus_RequestUnload(t *testing.T) {
	b := NewBus()

	allowed, msg := b.RequestUnload()
	assert.True(t, allowed)
	assert.Empty(t, msg)

	b.Subscribe(func(ev Event) {
		if ev.Kind == BeforeUnload {
			ev.Guard.Cancel("unsaved changes")
		}
	})
	b.Subscribe(func(ev Event) {
		if ev.Kind == BeforeUnload {
			ev.Guard.Cancel("ignored")
		}
	})

	allowed, msg = b.RequestUnload()
	assert.False(t, allowed)
	assert.Equal(t, "unsaved changes", msg)
}

func TestParseKind(t *testing.T) {
	for _, name := range KindNames() {
		k, ok := ParseKind(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, k.String())
	}
	_, ok := ParseKind("resize")
	assert.False(t, ok)
}
