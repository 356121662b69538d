package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimestampIsFixedWidth(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := FormatTimestamp(base.Add(100 * time.Millisecond))
	b := FormatTimestamp(base.Add(120 * time.Millisecond))

	assert.Equal(t, "2026-01-01T00:00:00.100000000Z", a)
	assert.Len(t, b, len(a))
	assert.Less(t, a, b)
}

func TestCompareTimestampsUsesTime(t *testing.T) {
	assert.Equal(t, -1, CompareTimestamps("2026-01-01T00:00:00.1Z", "2026-01-01T00:00:00.12Z"))
	assert.Equal(t, 1, CompareTimestamps("2026-01-01T00:00:01Z", "2026-01-01T00:00:00.999Z"))
	assert.Equal(t, 0, CompareTimestamps("2026-01-01T00:00:00.5Z", "2026-01-01T00:00:00.500000000Z"))
	assert.Equal(t, -1, CompareTimestamps("", "2026-01-01T00:00:00Z"))
}
