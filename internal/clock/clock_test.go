package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetOffsetFromClientNow(t *testing.T) {
	defer Reset()

	future := time.Now().Add(1 * time.Hour)
	SetOffsetFromClientNow(future)

	adjusted := Now()
	assert.WithinDuration(t, future, adjusted, 1*time.Second)
}

func TestResetClearsOffset(t *testing.T) {
	SetOffsetFromClientNow(time.Now().Add(1 * time.Hour))
	Reset()
	assert.Equal(t, time.Duration(0), Offset())
}
