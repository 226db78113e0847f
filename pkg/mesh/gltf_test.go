package mesh

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGLTFMissingFileFails(t *testing.T) {
	if _, err := LoadGLTF("does_not_exist.glb"); err == nil {
		t.Error("LoadGLTF(missing file) = nil error, want one")
	}
}

func TestLoadGLTFRejectsNonGLTFFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_a_model.glb")
	if err := os.WriteFile(path, []byte("not a glTF document"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadGLTF(path); err == nil {
		t.Error("LoadGLTF(garbage file) = nil error, want one")
	}
}
