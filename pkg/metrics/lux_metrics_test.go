package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistersWithoutPanic(t *testing.T) {
	m, err := New("chronos_test")
	require.NoError(t, err)

	m.RecordMessageDecoded()
	m.RecordOrderAdded()
	m.RecordOrderCancelled()
	m.RecordOrderRejected()
	m.RecordFills(3)
	m.RecordAddOrderLatency(123)
	m.RecordDecodeLatency(45)
	m.UpdateDepth("bid", 5)
}

func TestNewDuplicateNamespaceDoesNotPanic(t *testing.T) {
	_, err := New("chronos_test_dup")
	require.NoError(t, err)

	_, err = New("chronos_test_dup")
	require.NoError(t, err)
}
