package debug

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDPrintf(t *testing.T) {
	t.Setenv(EnvVar, "SCHED; MM")
	Reload()
	defer Reload()

	buf := &bytes.Buffer{}
	prev := log.Writer()
	log.SetOutput(buf)
	defer log.SetOutput(prev)

	assert.True(t, IsEnabled(SCHED))
	assert.True(t, IsEnabled(MM))
	assert.True(t, IsEnabled(ALWAYS))
	assert.False(t, IsEnabled(SYNC))

	DPrintf(SYNC, "hidden %d", 1)
	assert.Empty(t, buf.String())

	DPrintf(SCHED, "pick tid=%d", 3)
	assert.Contains(t, buf.String(), "SCHED pick tid=3")

	Enable(SYNC)
	assert.True(t, IsEnabled(SYNC))
}
