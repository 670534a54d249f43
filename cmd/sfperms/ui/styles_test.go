package ui

import (
	"strings"
	"testing"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("SFPERMS_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when SFPERMS_DARK_MODE=1")
	}

	t.Setenv("SFPERMS_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when SFPERMS_DARK_MODE is unset")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for a black COLORFGBG background")
	}
}

func TestRenderDivider(t *testing.T) {
	s := NewStyles(LightTheme())
	if got := s.RenderDivider(4); !strings.Contains(got, "────") {
		t.Fatalf("divider missing rule characters: %q", got)
	}
}

func TestTableUsesThemeColors(t *testing.T) {
	s := NewStyles(DarkTheme())
	ts := s.Table()
	if ts.Granted.GetForeground() != DarkTheme().Granted {
		t.Fatalf("granted cells should use the theme granted color")
	}
	if ts.Denied.GetForeground() != DarkTheme().Denied {
		t.Fatalf("denied cells should use the theme denied color")
	}
}
