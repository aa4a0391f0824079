package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterrupt_FirstSignalRequestsGracefulStop(t *testing.T) {
	i := NewInterrupt()
	assert.Equal(t, InterruptNone, i.Phase())

	assert.Equal(t, InterruptRequested, i.Signal())
	assert.Equal(t, InterruptRequested, i.Phase())

	select {
	case <-i.RequestedC():
	default:
		t.Fatal("requested channel should be closed")
	}
}

func TestInterrupt_QuickSecondSignalIsAcknowledgement(t *testing.T) {
	i := NewInterrupt()
	i.Signal()
	assert.Equal(t, InterruptRequested, i.Signal())

	select {
	case <-i.ForcefulC():
		t.Fatal("forceful channel must stay open after an ack")
	default:
	}
}

func TestInterrupt_ThirdSignalEscalates(t *testing.T) {
	i := NewInterrupt()
	i.Signal()
	i.Signal()
	assert.Equal(t, InterruptForceful, i.Signal())
	assert.Equal(t, InterruptForceful, i.Phase())

	select {
	case <-i.ForcefulC():
	default:
		t.Fatal("forceful channel should be closed")
	}
}

func TestInterrupt_LateSecondSignalEscalates(t *testing.T) {
	i := NewInterrupt()
	i.Signal()
	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, InterruptForceful, i.Signal())
}
