package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceRotation_FullCycle(t *testing.T) {
	for _, start := range []Rotation{0, 90, 180, 270} {
		s := DefaultSettings()
		s.Rotation = start

		got := s.AdvanceRotation().AdvanceRotation().AdvanceRotation().AdvanceRotation()
		assert.Equal(t, s, got, "start=%d", start)
	}
}

func TestAdvanceRotation_Sequence(t *testing.T) {
	s := DefaultSettings()
	var seen []Rotation
	for i := 0; i < 5; i++ {
		s = s.AdvanceRotation()
		seen = append(seen, s.Rotation)
	}
	assert.Equal(t, []Rotation{90, 180, 270, 0, 90}, seen)
}

func TestAdvanceRotation_DoesNotMutateReceiver(t *testing.T) {
	s := DefaultSettings()
	_ = s.AdvanceRotation()
	assert.Equal(t, Rotation(0), s.Rotation)
}

func TestDefaultSettings(t *testing.T) {
	assert.Equal(t, OutputSettings{
		Orientation:  Portrait,
		Rotation:     0,
		AddBorder:    false,
		ImageQuality: QualityHigh,
	}, DefaultSettings())
}

func TestToggles(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, Landscape, s.ToggleOrientation().Orientation)
	assert.Equal(t, Portrait, s.ToggleOrientation().ToggleOrientation().Orientation)
	assert.True(t, s.ToggleBorder().AddBorder)
	assert.False(t, s.ToggleBorder().ToggleBorder().AddBorder)
}

func TestWithQuality(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, QualityLow, s.WithQuality(QualityLow).ImageQuality)
	assert.Equal(t, QualityMedium, s.WithQuality(QualityMedium).ImageQuality)
	assert.Equal(t, QualityHigh, s.WithQuality(QualityLow).WithQuality("ultra").ImageQuality)
}

func TestEncoderQuality(t *testing.T) {
	assert.InDelta(t, 0.5, QualityLow.EncoderQuality(), 1e-9)
	assert.InDelta(t, 0.75, QualityMedium.EncoderQuality(), 1e-9)
	assert.InDelta(t, 0.95, QualityHigh.EncoderQuality(), 1e-9)
	assert.InDelta(t, 0.95, ImageQuality("").EncoderQuality(), 1e-9)
}

func TestRotationFromDegrees(t *testing.T) {
	tests := []struct {
		in   int
		want Rotation
	}{
		{0, 0}, {90, 90}, {360, 0}, {450, 90}, {-90, 270}, {-180, 180},
	}
	for _, tt := range tests {
		got, err := RotationFromDegrees(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "in=%d", tt.in)
	}

	_, err := RotationFromDegrees(45)
	assert.Error(t, err)
}

func TestParseOrientationAndQuality(t *testing.T) {
	o, err := ParseOrientation(" Landscape ")
	require.NoError(t, err)
	assert.Equal(t, Landscape, o)

	_, err = ParseOrientation("sideways")
	assert.Error(t, err)

	q, err := ParseQuality("MEDIUM")
	require.NoError(t, err)
	assert.Equal(t, QualityMedium, q)

	_, err = ParseQuality("ultra")
	assert.Error(t, err)
}
