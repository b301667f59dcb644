package completion

import "testing"

func TestContains_DefaultSentinelWhenUnset(t *testing.T) {
	if !Contains("blah blah <promise>COMPLETE</promise> blah", "") {
		t.Fatal("expected default sentinel match")
	}
}

func TestContains_CustomSentinel(t *testing.T) {
	if Contains("no marker here", "<<DONE>>") {
		t.Fatal("expected no match")
	}
	if !Contains("prefix <<DONE>> suffix", "<<DONE>>") {
		t.Fatal("expected match")
	}
}

func TestSucceeded_RequiresBothExitCodeZeroAndSentinel(t *testing.T) {
	if Succeeded(1, "<promise>COMPLETE</promise>", "") {
		t.Fatal("expected failure on non-zero exit code")
	}
	if Succeeded(0, "no sentinel here", "") {
		t.Fatal("expected failure without sentinel")
	}
	if !Succeeded(0, "<promise>COMPLETE</promise>", "") {
		t.Fatal("expected success")
	}
}
