package ack

import (
	"testing"

	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delivery(id string, fired *[]string) broker.Delivery {
	return broker.Delivery{
		MessageID: id,
		Ack: func(uow broker.UOW) {
			*fired = append(*fired, id)
		},
	}
}

func TestAutoAcksImmediatelyAndRejectsFrames(t *testing.T) {
	var fired []string
	tr := NewAuto()
	tr.Track(delivery("m1", &fired))
	assert.Equal(t, []string{"m1"}, fired)

	err := tr.PerformAck("m1", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not expect ACK frames")

	err = tr.PerformNack("m1", false)
	require.Error(t, err)
}

func TestClientCumulativeAckPrefixInTrackingOrder(t *testing.T) {
	var fired []string
	tr := NewClient()
	tr.Track(delivery("m1", &fired))
	tr.Track(delivery("m2", &fired))
	tr.Track(delivery("m3", &fired))

	require.NoError(t, tr.PerformAck("m2", nil))
	assert.Equal(t, []string{"m1", "m2"}, fired)
	assert.Equal(t, []string{"m3"}, tr.Pending())

	require.NoError(t, tr.PerformAck("m3", nil))
	assert.Equal(t, []string{"m1", "m2", "m3"}, fired)
	assert.Empty(t, tr.Pending())
}

func TestClientAckOfUnknownIDFails(t *testing.T) {
	tr := NewClient()
	var fired []string
	tr.Track(delivery("m1", &fired))

	err := tr.PerformAck("missing", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid message id")
}

func TestClientNackDiscardsPrefixWithoutFiringAck(t *testing.T) {
	var fired []string
	tr := NewClient()
	tr.Track(delivery("m1", &fired))
	tr.Track(delivery("m2", &fired))

	require.NoError(t, tr.PerformNack("m1", true))
	assert.Empty(t, fired, "nack must not invoke ack callbacks")
	assert.Equal(t, []string{"m2"}, tr.Pending())
}

func TestClientIndividualAcksOnlyNamedMessage(t *testing.T) {
	var fired []string
	tr := NewClientIndividual()
	tr.Track(delivery("m1", &fired))
	tr.Track(delivery("m2", &fired))
	tr.Track(delivery("m3", &fired))

	require.NoError(t, tr.PerformAck("m2", nil))
	assert.Equal(t, []string{"m2"}, fired)
	assert.ElementsMatch(t, []string{"m1", "m3"}, tr.Pending())
}

func TestClientIndividualAckOfUnknownIDFails(t *testing.T) {
	tr := NewClientIndividual()
	err := tr.PerformAck("missing", nil)
	require.Error(t, err)
}

func TestNewDispatchesByMode(t *testing.T) {
	assert.IsType(t, &Auto{}, New(ModeAuto))
	assert.IsType(t, &Client{}, New(ModeClient))
	assert.IsType(t, &ClientIndividual{}, New(ModeClientIndividual))
	assert.Nil(t, New(Mode("bogus")))
}
