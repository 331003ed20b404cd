package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopClient(t *testing.T) {
	client := NewNoop(nil)
	assert.Nil(t, client.Configure(500*time.Millisecond))
	assert.Nil(t, client.KeepAlive())
}

func TestPlatformClient(t *testing.T) {
	// Without a supervisor notification socket the ping is a no-op
	// acknowledgement on every platform.
	client := New(nil)
	assert.Nil(t, client.Configure(500*time.Millisecond))
	assert.Nil(t, client.KeepAlive())
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	assert.Nil(t, recorder.Configure(time.Second))
	assert.Nil(t, recorder.KeepAlive())
	assert.Nil(t, recorder.KeepAlive())

	assert.Equal(t, []time.Duration{time.Second}, recorder.Configured())
	assert.Equal(t, 2, recorder.KeepAliveCount())
	assert.Len(t, recorder.KeepAlives(), 2)
}
