package contextwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMessage_CachesByContent(t *testing.T) {
	e := New(1000, 16)

	first := e.EstimateMessage("twelve characters")
	second := e.EstimateMessage("twelve characters")
	assert.Equal(t, first, second)
	assert.Greater(t, first, 0)
}

func TestAccumulateAndReset(t *testing.T) {
	e := New(100, 16)
	e.Accumulate(40)
	e.Accumulate(10)
	assert.Equal(t, 50, e.Used())

	e.Reset()
	assert.Equal(t, 0, e.Used())
}

func TestSetSoftLimit_IgnoresNonPositive(t *testing.T) {
	e := New(128000, 16)
	e.SetSoftLimit(0)
	assert.Equal(t, 128000, e.SoftLimit())

	e.SetSoftLimit(200000)
	assert.Equal(t, 200000, e.SoftLimit())
}

func TestUsedPercentAndWouldExceed(t *testing.T) {
	e := New(100, 16)
	e.SetUsage(50)
	assert.InDelta(t, 50.0, e.UsedPercent(), 0.001)
	assert.False(t, e.WouldExceed(49))
	assert.True(t, e.WouldExceed(51))
}

func TestUsedPercent_ZeroSoftLimit(t *testing.T) {
	e := &Estimator{}
	assert.Equal(t, 0.0, e.UsedPercent())
}
