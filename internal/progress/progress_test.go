package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMulti_FansOutInOrder(t *testing.T) {
	var calls []string
	m := Multi{
		Func(func(done, total uint64) { calls = append(calls, "a") }),
		Nop{},
		Func(func(done, total uint64) { calls = append(calls, "b") }),
	}
	m.OnProgress(1, 2)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestLog_ThrottlesButAlwaysLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	l := NewLog(logger, time.Hour)

	l.OnProgress(1, 100)
	l.OnProgress(2, 100)
	l.OnProgress(3, 100)
	l.OnProgress(100, 100)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "done=1")
	assert.Contains(t, lines[1], "percent=100.0%")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "100.0%", percent(0, 0))
	assert.Equal(t, "25.0%", percent(1, 4))
}

func TestGauge(t *testing.T) {
	Gauge{}.OnProgress(7, 10)
	assert.Equal(t, 7.0, testutil.ToFloat64(candidatesDone))
	assert.Equal(t, 10.0, testutil.ToFloat64(candidatesTotal))
}
