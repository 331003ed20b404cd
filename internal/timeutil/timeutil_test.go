package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const hundredDays = 100 * 24 * time.Hour

func TestToMillis(t *testing.T) {
	assert.EqualValues(t, 1234, ToMillis(1234*time.Millisecond))
	assert.EqualValues(t, 0, ToMillis(999*time.Microsecond))
}

func TestToMillisTooLarge(t *testing.T) {
	assert.Panics(t, func() { ToMillis(hundredDays) })
}

func TestOriginOffset(t *testing.T) {
	monitorStart := time.Now()
	hmonStart := time.Now()
	offset := OriginOffset(hmonStart, monitorStart)
	// Allow a small offset between the two calls.
	assert.Less(t, offset, uint32(10))
}

func TestOriginOffsetWrongOrder(t *testing.T) {
	hmonStart := time.Now()
	monitorStart := hmonStart.Add(time.Second)
	assert.Panics(t, func() { OriginOffset(hmonStart, monitorStart) })
}

func TestOriginOffsetTooLarge(t *testing.T) {
	monitorStart := time.Now()
	hmonStart := monitorStart.Add(hundredDays)
	assert.Panics(t, func() { OriginOffset(hmonStart, monitorStart) })
}
