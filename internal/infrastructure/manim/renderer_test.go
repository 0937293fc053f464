package manim

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScene(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene_test.py")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}
	return path
}

func TestSceneClass(t *testing.T) {
	t.Parallel()

	path := writeScene(t, `from manim import *

class OrbitDemo(Scene):
    def construct(self):
        self.wait()
`)
	name, err := sceneClass(path)
	if err != nil {
		t.Fatalf("sceneClass error: %v", err)
	}
	if name != "OrbitDemo" {
		t.Fatalf("scene name = %q", name)
	}
}

func TestSceneClassSpacing(t *testing.T) {
	t.Parallel()

	path := writeScene(t, "class  Wobbly_1 ( Scene ):\n    pass\n")
	name, err := sceneClass(path)
	if err != nil {
		t.Fatalf("sceneClass error: %v", err)
	}
	if name != "Wobbly_1" {
		t.Fatalf("scene name = %q", name)
	}
}

func TestSceneClassMissing(t *testing.T) {
	t.Parallel()

	path := writeScene(t, "print('not a scene')\n")
	if _, err := sceneClass(path); err == nil {
		t.Fatal("expected error when no Scene subclass exists")
	}
}

func TestQualityDir(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"-ql":  "480p15",
		"-qm":  "720p30",
		"-qh":  "1080p60",
		"-pqh": "1080p60",
		"":     "480p15",
	}
	for quality, want := range cases {
		if got := qualityDir(quality); got != want {
			t.Errorf("qualityDir(%q) = %q, want %q", quality, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	if got := tail("abcdef", 3); got != "def" {
		t.Fatalf("tail = %q", got)
	}
	if got := tail("ab", 3); got != "ab" {
		t.Fatalf("tail = %q", got)
	}
}
