package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDisk_OpenRegularFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("ok"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := NewDisk(dir)
	got, err := d.Open(context.Background(), "ok.txt")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if string(got) != "ok" {
		t.Errorf("Open = %q, want %q", got, "ok")
	}
}

func TestDisk_OpenNested(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "css"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := NewDisk(dir)
	got, err := d.Open(context.Background(), "css/site.css")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if string(got) != "body{}" {
		t.Errorf("Open = %q, want %q", got, "body{}")
	}
}

func TestDisk_MissingFile(t *testing.T) {
	d := NewDisk(t.TempDir())
	if _, err := d.Open(context.Background(), "missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open error = %v, want ErrNotFound", err)
	}
}

func TestDisk_DirectoryIsNotFound(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	d := NewDisk(dir)
	if _, err := d.Open(context.Background(), "sub"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open(dir) error = %v, want ErrNotFound", err)
	}
}

func TestDisk_SymlinkEscapeIsNotFound(t *testing.T) {
	outer := t.TempDir()
	secret := filepath.Join(outer, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	root := filepath.Join(outer, "public")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.Symlink(secret, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	d := NewDisk(root)
	if _, err := d.Open(context.Background(), "link.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open(symlink escape) error = %v, want ErrNotFound", err)
	}
}
