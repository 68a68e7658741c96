package bootanim

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	defaults := Params{Width: 1080, Height: 1920, FPS: 24, Name: "Default"}
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Width: 1080, Height: 1920, FPS: 24, Name: "Default"}},
		{"clamped low", Params{Width: 10, Height: 50, FPS: -3, Loop: -1}, Params{Width: 100, Height: 100, FPS: 1, Name: "Default"}},
		{"clamped high", Params{Width: 9000, Height: 4000, FPS: 500}, Params{Width: 3840, Height: 3840, FPS: 120, Name: "Default"}},
		{"kept", Params{Width: 720, Height: 1280, FPS: 30, Loop: 3, Name: "Mine"}, Params{Width: 720, Height: 1280, FPS: 30, Loop: 3, Name: "Mine"}},
		{"name newlines", Params{Name: "Evil\nid=other"}, Params{Width: 1080, Height: 1920, FPS: 24, Name: "Evil id=other"}},
		{"blank name", Params{Name: "  \t "}, Params{Width: 1080, Height: 1920, FPS: 24, Name: "Default"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(defaults); got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeTruncatesName(t *testing.T) {
	got := Params{Name: strings.Repeat("é", 100)}.Normalize(Params{})
	if n := len([]rune(got.Name)); n != maxNameRunes {
		t.Fatalf("expected %d runes, got %d", maxNameRunes, n)
	}
	if got.Name == fallbackName {
		t.Fatal("expected truncated name, not fallback")
	}
}

func TestNormalizeFallbackName(t *testing.T) {
	if got := (Params{}).Normalize(Params{}); got.Name != fallbackName {
		t.Fatalf("expected fallback name, got %q", got.Name)
	}
}

func TestDescriptor(t *testing.T) {
	got := Descriptor(Params{Width: 720, Height: 1280, FPS: 30, Loop: 5})
	if got != "720 1280 30\np 5 0 part0\n" {
		t.Fatalf("unexpected descriptor %q", got)
	}
}

func TestModuleProp(t *testing.T) {
	got := ModuleProp(ModuleIdentity{ID: "X", Version: "v2", VersionCode: 7, Author: "me"}, "Sunrise")
	want := "id=X\nname=Sunrise\nversion=v2\nversionCode=7\nauthor=me\ndescription=Custom Boot Animation - Sunrise\n"
	if got != want {
		t.Fatalf("unexpected module.prop:\n%s", got)
	}
}
