package events

import (
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDeliveryFailure(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	logDeliveryFailure([]kafka.Message{{}, {}}, nil)
	assert.Empty(t, hook.AllEntries())

	logDeliveryFailure([]kafka.Message{{}, {}}, errors.New("broker down"))
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 2, entry.Data["messages"])
	assert.Equal(t, "broker down", entry.Data["error"])
}
