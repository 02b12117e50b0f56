package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	outDir := filepath.Join(tmpDir, "reports")
	elsewhereDir := filepath.Join(tmpDir, "elsewhere")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.MkdirAll(elsewhereDir, 0o755); err != nil {
		t.Fatalf("Failed to create outside directory: %v", err)
	}

	outsideFile := filepath.Join(elsewhereDir, "secret.pdf")
	if err := os.WriteFile(outsideFile, []byte("secret"), 0o644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}

	// Symlink inside the output directory pointing out of it.
	symlinkPath := filepath.Join(outDir, "escape")
	if err := os.Symlink(elsewhereDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{
			name:     "report directly in output dir",
			filePath: filepath.Join(outDir, "session_report.pdf"),
			safeDir:  outDir,
		},
		{
			name:     "report in a dated subdirectory that does not exist yet",
			filePath: filepath.Join(outDir, "2026-08", "session_report.pdf"),
			safeDir:  outDir,
		},
		{
			name:      "dot-dot traversal",
			filePath:  filepath.Join(outDir, "..", "elsewhere", "secret.pdf"),
			safeDir:   outDir,
			wantError: true,
		},
		{
			name:      "relative traversal from outside",
			filePath:  "../../../etc/passwd",
			safeDir:   outDir,
			wantError: true,
		},
		{
			name:      "absolute path outside output dir",
			filePath:  "/etc/passwd",
			safeDir:   outDir,
			wantError: true,
		},
		{
			name:      "file reached through a symlinked subdirectory",
			filePath:  filepath.Join(symlinkPath, "secret.pdf"),
			safeDir:   outDir,
			wantError: true,
		},
		{
			name:      "the symlink itself",
			filePath:  symlinkPath,
			safeDir:   outDir,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sess-42", "sess-42"},
		{"archive", "archive"},
		{"a b/c", "a_b_c"},
		{"../../etc/passwd", "etc_passwd"},
		{"op@example.com", "op_example.com"},
		{"___", "unknown"},
		{"", "unknown"},
		{"trail_._", "trail"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	if got := SanitizeFilename(long); len(got) > 128 {
		t.Errorf("len = %d, want at most 128", len(got))
	}
}
