package version

import (
	"testing"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/iostreams/iostreamstest"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		buildDate string
		want      string
	}{
		{
			name:    "version only",
			version: "1.2.3",
			want:    "fixture version 1.2.3\n",
		},
		{
			name:      "version with date",
			version:   "v1.2.3",
			buildDate: "2026-02-11",
			want:      "fixture version 1.2.3 (2026-02-11)\n",
		},
		{
			name:    "dev version",
			version: "DEV",
			want:    "fixture version DEV\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.version, tt.buildDate)
			if got != tt.want {
				t.Errorf("Format(%q, %q) = %q, want %q", tt.version, tt.buildDate, got, tt.want)
			}
		})
	}
}

func TestNewCmdVersion(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}

	cmd := NewCmdVersion(f, "0.3.0", "")
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := tio.OutBuf.String(); got != "fixture version 0.3.0\n" {
		t.Errorf("output = %q", got)
	}
}
