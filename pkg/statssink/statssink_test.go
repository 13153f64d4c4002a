package statssink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protosentry/detector/pkg/protocol"
)

func TestSinkRecordResult(t *testing.T) {
	s := New()
	s.RecordResult(protocol.Result{
		Info:         protocol.New(protocol.TLS, 0.9),
		Elapsed:      1500,
		Method:       protocol.MethodPassive,
		DetectorName: "magic",
	})
	s.RecordResult(protocol.Result{
		Info:         protocol.New(protocol.TLS, 0.7),
		Elapsed:      500,
		Method:       protocol.MethodHeuristic,
		DetectorName: "heuristic",
	})

	snap := s.Snapshot()
	assert.EqualValues(t, 2, snap.TotalDetections)
	assert.EqualValues(t, 0, snap.TotalErrors)
	assert.EqualValues(t, 2000, snap.TotalElapsedNs)
	assert.EqualValues(t, 2, snap.ByProtocol[protocol.TLS])
	assert.EqualValues(t, 1, snap.ByMethod[protocol.MethodPassive])
	assert.EqualValues(t, 1, snap.ByMethod[protocol.MethodHeuristic])
}

func TestSinkRecordError(t *testing.T) {
	s := New()
	s.RecordError()
	s.RecordError()
	assert.EqualValues(t, 2, s.Snapshot().TotalErrors)
}

func TestSinkSnapshotIsIndependentCopy(t *testing.T) {
	s := New()
	s.RecordResult(protocol.Result{Info: protocol.New(protocol.SSH, 0.5)})
	snap := s.Snapshot()
	snap.ByProtocol[protocol.SSH] = 999

	fresh := s.Snapshot()
	assert.EqualValues(t, 1, fresh.ByProtocol[protocol.SSH])
}

func TestPersistentSinkRecordsToDatabase(t *testing.T) {
	dir := t.TempDir()
	ps, err := OpenPersistentSink(dir + "/stats.db")
	require.NoError(t, err)
	defer ps.Close()

	err = ps.RecordResult(protocol.Result{
		Info:         protocol.New(protocol.MySQL, 0.95),
		Method:       protocol.MethodActive,
		DetectorName: "probe-battery",
	})
	require.NoError(t, err)

	count, err := ps.CountByProtocol(protocol.MySQL)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.EqualValues(t, 1, ps.Snapshot().TotalDetections)
}
