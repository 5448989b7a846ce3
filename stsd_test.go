package stsd_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchpaulus/stsd"
	"github.com/stretchr/testify/require"
)

func TestPublicAPIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.stsd")

	require.NoError(t, stsd.Init(path, stsd.WithInitialYear(2020)))

	summary, err := stsd.Summarize(path)
	require.NoError(t, err)
	require.EqualValues(t, 2020, summary.InitialYear)

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	points := []stsd.Point{
		{Timestamp: day.Add(time.Minute), Value: "On"},
		{Timestamp: day.Add(2 * time.Minute), Value: "Off"},
	}
	require.NoError(t, stsd.WriteData(path, "switch.pump1", points))

	got, err := stsd.ReadRange(path, "switch.pump1", day, day)
	require.NoError(t, err)
	require.Equal(t, points, got)
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.stsd")
	require.NoError(t, stsd.Init(path))

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, stsd.WriteData(path, "trend.a", []stsd.Point{
		{Timestamp: day.Add(time.Minute), Value: "1"},
	}))

	snapPath := filepath.Join(dir, "backup.snap")
	require.NoError(t, stsd.Backup(path, snapPath, stsd.CompressionZstd))

	restoredPath := filepath.Join(dir, "restored.stsd")
	require.NoError(t, stsd.Restore(restoredPath, snapPath, false))

	got, err := stsd.ReadRange(restoredPath, "trend.a", day, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].Value)
}
