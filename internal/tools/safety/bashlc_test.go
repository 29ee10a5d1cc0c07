package safety

import "testing"

func TestStripBashLC_UnwrapsSimpleScript(t *testing.T) {
	got := StripBashLC(`bash -lc "ls -la"`)
	if got != "ls -la" {
		t.Fatalf("StripBashLC() = %q, want %q", got, "ls -la")
	}
}

func TestStripBashLC_NonBashCommandUnchanged(t *testing.T) {
	got := StripBashLC("ls -la")
	if got != "ls -la" {
		t.Fatalf("StripBashLC() = %q, want unchanged", got)
	}
}

func TestStripBashLC_RelaxedFallbackOnUnbalancedQuotes(t *testing.T) {
	got := StripBashLC(`bash -lc echo "it's fine"`)
	if got == `bash -lc echo "it's fine"` {
		t.Fatal("StripBashLC() did not unwrap the relaxed form")
	}
}

func TestStripBashLC_ExtraTokensRecoverFullScript(t *testing.T) {
	// shlex.Split tokenizes this into 4 words ("bash", "-lc", "echo",
	// "it's fine") since the apostrophe sits inside double quotes. Naively
	// taking argv[2] would silently drop "it's fine" from the recovered
	// script.
	got := StripBashLC(`bash -lc echo "it's fine"`)
	want := `echo "it's fine"`
	if got != want {
		t.Fatalf("StripBashLC() = %q, want %q", got, want)
	}
}

func TestStripBashLC_QuotedScriptWithEmbeddedApostropheUnwraps(t *testing.T) {
	got := StripBashLC(`bash -lc "echo it's fine"`)
	want := "echo it's fine"
	if got != want {
		t.Fatalf("StripBashLC() = %q, want %q", got, want)
	}
}
