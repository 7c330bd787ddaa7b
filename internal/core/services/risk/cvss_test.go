package risk

import (
	"testing"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

func TestBaseScorePrefersExplicitScore(t *testing.T) {
	c := NewCVSSScoreCalculator()

	score := 7.5
	threat := &domain.Threat{
		CVSSBaseScore: &score,
		CVSSVector:    "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", // would be 9.8
	}

	if got := c.BaseScore(threat); got != 7.5 {
		t.Errorf("BaseScore = %.2f, want 7.5 (explicit score wins over vector)", got)
	}
}

func TestBaseScoreFromVector(t *testing.T) {
	c := NewCVSSScoreCalculator()

	tests := []struct {
		name     string
		vector   string
		expected float64
	}{
		{"network RCE", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8},
		{"scope changed XSS", "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", 6.1},
		{"local privilege escalation", "CVSS:3.1/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H", 7.8},
		{"no impact at all", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N", 0.0},
		{"v3.0 prefix accepted", "CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threat := &domain.Threat{CVSSVector: tt.vector}
			if got := c.BaseScore(threat); got != tt.expected {
				t.Errorf("BaseScore(%q) = %.2f, want %.2f", tt.vector, got, tt.expected)
			}
		})
	}
}

func TestBaseScoreDegradesToZero(t *testing.T) {
	c := NewCVSSScoreCalculator()

	tests := []struct {
		name   string
		threat *domain.Threat
	}{
		{"nil threat", nil},
		{"no score no vector", &domain.Threat{}},
		{"garbage vector", &domain.Threat{CVSSVector: "not a vector"}},
		{"v2 vector rejected", &domain.Threat{CVSSVector: "AV:N/AC:L/Au:N/C:C/I:C/A:C"}},
		{"missing metrics", &domain.Threat{CVSSVector: "CVSS:3.1/AV:N/AC:L"}},
		{"unknown metric value", &domain.Threat{CVSSVector: "CVSS:3.1/AV:Z/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.BaseScore(tt.threat); got != 0.0 {
				t.Errorf("BaseScore = %.2f, want 0.0", got)
			}
		})
	}
}

func TestBaseScoreClampsExplicitScore(t *testing.T) {
	c := NewCVSSScoreCalculator()

	over := 11.4
	if got := c.BaseScore(&domain.Threat{CVSSBaseScore: &over}); got != 10.0 {
		t.Errorf("BaseScore = %.2f, want clamp to 10.0", got)
	}
	under := -1.0
	if got := c.BaseScore(&domain.Threat{CVSSBaseScore: &under}); got != 0.0 {
		t.Errorf("BaseScore = %.2f, want clamp to 0.0", got)
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{4.02, 4.1},
		{4.00, 4.0},
		{9.76, 9.8},
		{0.0, 0.0},
		{10.0, 10.0},
	}
	for _, tt := range tests {
		if got := roundUp(tt.in); got != tt.expected {
			t.Errorf("roundUp(%v) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
