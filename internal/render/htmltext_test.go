package render

import (
	"reflect"
	"testing"
)

func TestFlatten_ParagraphsSeparatedByBlankLines(t *testing.T) {
	got := Flatten("<p>First paragraph.</p><p>Second paragraph.</p>")
	want := "First paragraph.\n\nSecond paragraph."
	if got != want {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFlatten_UnescapesEntities(t *testing.T) {
	got := Flatten("<p>Allah &amp; His Messenger</p>")
	if got != "Allah & His Messenger" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFlatten_InlineTagsDoNotBreakText(t *testing.T) {
	got := Flatten("<p>The <strong>Virtue</strong> of <em>Ayat Al-Kursi</em></p>")
	if got != "The Virtue of Ayat Al-Kursi" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFlatten_BreakTagsBecomeNewlines(t *testing.T) {
	got := Flatten("line one<br>line two")
	if got != "line one\nline two" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFlatten_DropsScriptAndStyle(t *testing.T) {
	got := Flatten("<p>visible</p><script>alert(1)</script><style>p{}</style>")
	if got != "visible" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFlatten_PlainTextPassesThrough(t *testing.T) {
	got := Flatten("  just text  ")
	if got != "just text" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestWrap_BreaksAtWidth(t *testing.T) {
	got := Wrap("alpha beta gamma delta", 11)
	want := []string{"alpha beta", "gamma delta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wrap: %v", got)
	}
}

func TestWrap_PreservesBlankLines(t *testing.T) {
	got := Wrap("one\n\ntwo", 20)
	want := []string{"one", "", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wrap: %v", got)
	}
}

func TestWrap_LongWordStandsAlone(t *testing.T) {
	got := Wrap("a verylongunbreakableword b", 10)
	want := []string{"a", "verylongunbreakableword", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wrap: %v", got)
	}
}
