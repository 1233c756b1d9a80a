package models

import (
	"fmt"
	"strings"
)

// Orientation of the produced pages.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ImageQuality tier for raster outputs.
type ImageQuality string

const (
	QualityLow    ImageQuality = "low"
	QualityMedium ImageQuality = "medium"
	QualityHigh   ImageQuality = "high"
)

// EncoderQuality maps the tier onto a 0..1 encoder quality factor.
func (q ImageQuality) EncoderQuality() float64 {
	switch q {
	case QualityLow:
		return 0.5
	case QualityMedium:
		return 0.75
	default:
		return 0.95
	}
}

// Rotation is a clockwise page rotation, always one of 0, 90, 180 or 270.
type Rotation int

// RotationFromDegrees normalises any multiple of 90 into [0, 360).
func RotationFromDegrees(deg int) (Rotation, error) {
	if deg%90 != 0 {
		return 0, fmt.Errorf("rotation must be a multiple of 90, got %d", deg)
	}
	return Rotation(((deg % 360) + 360) % 360), nil
}

// OutputSettings is an immutable value object. All transitions return a new value
// and every field has a total default, so no invalid state is reachable.
type OutputSettings struct {
	Orientation  Orientation
	Rotation     Rotation
	AddBorder    bool
	ImageQuality ImageQuality
}

// DefaultSettings is the canonical state applied whenever a new input file is chosen.
func DefaultSettings() OutputSettings {
	return OutputSettings{
		Orientation:  Portrait,
		Rotation:     0,
		AddBorder:    false,
		ImageQuality: QualityHigh,
	}
}

// AdvanceRotation rotates by +90 degrees, wrapping at 360.
func (s OutputSettings) AdvanceRotation() OutputSettings {
	s.Rotation = (s.Rotation + 90) % 360
	return s
}

func (s OutputSettings) ToggleOrientation() OutputSettings {
	if s.Orientation == Landscape {
		s.Orientation = Portrait
	} else {
		s.Orientation = Landscape
	}
	return s
}

func (s OutputSettings) ToggleBorder() OutputSettings {
	s.AddBorder = !s.AddBorder
	return s
}

// WithQuality sets the image quality; unknown tiers fall back to high.
func (s OutputSettings) WithQuality(q ImageQuality) OutputSettings {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		s.ImageQuality = q
	default:
		s.ImageQuality = QualityHigh
	}
	return s
}

// ParseOrientation accepts "portrait" or "landscape" in any case.
func ParseOrientation(v string) (Orientation, error) {
	switch o := Orientation(strings.ToLower(strings.TrimSpace(v))); o {
	case Portrait, Landscape:
		return o, nil
	default:
		return "", fmt.Errorf("unknown orientation %q", v)
	}
}

// ParseQuality accepts "low", "medium" or "high" in any case.
func ParseQuality(v string) (ImageQuality, error) {
	switch q := ImageQuality(strings.ToLower(strings.TrimSpace(v))); q {
	case QualityLow, QualityMedium, QualityHigh:
		return q, nil
	default:
		return "", fmt.Errorf("unknown image quality %q", v)
	}
}
