package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISODateScanKeepsShortForm(t *testing.T) {
	// The driver surfaces a DATE column as a midnight time.Time; the
	// scan must come back as "2006-01-02", not an RFC 3339 timestamp.
	var d ISODate
	require.NoError(t, d.Scan(time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-09-02", d.String())
}

func TestISODateScanSources(t *testing.T) {
	var d ISODate

	require.NoError(t, d.Scan([]byte("2026-09-02")))
	assert.Equal(t, ISODate("2026-09-02"), d)

	require.NoError(t, d.Scan("2026-09-03"))
	assert.Equal(t, ISODate("2026-09-03"), d)

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, ISODate(""), d)

	assert.Error(t, d.Scan(42))
}

func TestISODateValue(t *testing.T) {
	v, err := ISODate("2026-09-02").Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-09-02", v)
}
