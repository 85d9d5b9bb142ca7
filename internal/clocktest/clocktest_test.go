package clocktest

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_RegisterWhileAdvancing(t *testing.T) {
	m := NewMock()

	var fired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AfterFunc(time.Second, func() { fired.Add(1) })
		}()
		m.Add(10 * time.Millisecond)
	}
	wg.Wait()

	m.Add(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 20 }, time.Second, time.Millisecond)
}

func TestMock_Set(t *testing.T) {
	m := NewMock()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Set(at)
	assert.True(t, m.Now().Equal(at))
}
