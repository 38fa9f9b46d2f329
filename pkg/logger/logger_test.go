package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &ZapLogger{logger: zap.New(core).Sugar()}

	l.Info("Bid accepted", "user_id", "u1", "lot_id", "l1", "amount", int64(10500))
	l.Warn("Lock release failed", "lot_id", "l1")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "Bid accepted", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "u1", fields["user_id"])
	require.Equal(t, "l1", fields["lot_id"])
	require.Equal(t, int64(10500), fields["amount"])
	require.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestNewWithLevel_UnknownLevelFallsBack(t *testing.T) {
	require.NotNil(t, NewWithLevel("loud"))
	require.NotNil(t, NewWithLevel("debug"))
}

func TestNewNop_Sync(t *testing.T) {
	log := NewNop()
	log.Info("dropped", "key", "value")
	require.NoError(t, log.Sync())
}
