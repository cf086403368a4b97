package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobox/internal/logging"
)

func TestTimestampRoundTrip(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	at := time.Date(2013, 5, 4, 12, 30, 0, 0, time.UTC)

	stamp, err := WriteTimestamp(l, Current, at)
	require.NoError(t, err)
	assert.Equal(t, at.Format(TimestampFormat), stamp)
	assert.FileExists(t, l.Timestamp(Current))
	assert.Equal(t, stamp, ReadTimestamp(l, Current, logging.Discard()))
}

func TestReadTimestampsWithoutLast(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writeFile(t, l.Timestamp(Current), `{"timestamp":"T1"}`)

	ts := ReadTimestamps(l, logging.Discard())
	assert.Equal(t, Timestamps{Current: "T1", Last: NotAvailable}, ts)
}

func TestReadTimestampMalformed(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writeFile(t, l.Timestamp(Last), `not json`)
	assert.Equal(t, NotAvailable, ReadTimestamp(l, Last, logging.Discard()))
}
