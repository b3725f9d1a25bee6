package options

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goglitch.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDefaults(t *testing.T) {
	o, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.Width != 1280 || o.Height != 720 || o.FPS != 10 || o.Screenshot != "out.png" || o.RecordDir != "record" {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestConfigThenFlags(t *testing.T) {
	path := writeConfig(t, `
width = 640
height = 480
fps = 24
image = "cat.png"
filters = ["first", "static"]
log_level = "debug"
seed = 7
`)
	o, err := Parse([]string{"-config", path, "-height", "200", "-filters", "second, third", "dog.jpg"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.Width != 640 || o.FPS != 24 || o.LogLevel != "debug" || o.Seed != 7 {
		t.Fatalf("config values lost: %+v", o)
	}
	if o.Height != 200 {
		t.Fatalf("flag did not override config: height %d", o.Height)
	}
	if !slices.Equal(o.Filters, []string{"second", "third"}) {
		t.Fatalf("filters = %q", o.Filters)
	}
	if o.Image != "dog.jpg" {
		t.Fatalf("image = %q", o.Image)
	}
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	path := writeConfig(t, "fps = 12\nfilters = [\"first\"]\n")
	o, err := Parse([]string{"-config", path})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.FPS != 12 || !slices.Equal(o.Filters, []string{"first"}) {
		t.Fatalf("options = %+v", o)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "colour = 1\n", "colour"},
		{"bad type", "width = \"wide\"\n", "config"},
		{"invalid fps", "fps = 0\n", "invalid fps"},
		{"nan fps", "fps = nan\n", "invalid fps"},
		{"infinite fps", "fps = inf\n", "invalid fps"},
		{"bad level", "log_level = \"loud\"\n", "invalid log level"},
		{"bad codec", "codec = \"vp8\"\n", "invalid codec"},
		{"watch without dir", "watch = true\n", "filter directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]string{"-config", writeConfig(t, tt.body)})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestMissingConfig(t *testing.T) {
	if _, err := Parse([]string{"-config", filepath.Join(t.TempDir(), "none.toml")}); err == nil {
		t.Fatalf("missing config accepted")
	}
}

func TestNonFiniteFPSFlag(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		if _, err := Parse([]string{"-fps", v}); err == nil || !strings.Contains(err.Error(), "invalid fps") {
			t.Fatalf("-fps %s: err = %v", v, err)
		}
	}
}

func TestBadFlag(t *testing.T) {
	if _, err := Parse([]string{"-width", "x"}); err == nil {
		t.Fatalf("bad flag accepted")
	}
}
