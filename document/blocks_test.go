package document

import (
	"reflect"
	"testing"
)

func TestIndexPlainLines(t *testing.T) {
	blocks := Index("Hello\nWorld")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if b.Position != i {
			t.Errorf("block %d: expected position %d, got %d", i, i, b.Position)
		}
		if b.ID != i {
			t.Errorf("block %d: expected positional id %d, got %d", i, i, b.ID)
		}
		if b.Marked {
			t.Errorf("block %d: expected unmarked", i)
		}
	}
	if blocks[0].Content != "Hello" || blocks[1].Content != "World" {
		t.Errorf("unexpected contents: %q, %q", blocks[0].Content, blocks[1].Content)
	}
}

func TestIndexMarkers(t *testing.T) {
	blocks := Index("[BLOCK:7]Intro\nplain\n[BLOCK:3]Outro")

	want := []Block{
		{Position: 0, ID: 7, Content: "Intro", Marked: true},
		{Position: 1, ID: 1, Content: "plain"},
		{Position: 2, ID: 3, Content: "Outro", Marked: true},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("got %+v, want %+v", blocks, want)
	}
}

func TestIndexMalformedMarkers(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"negative", "[BLOCK:-1]text"},
		{"not a number", "[BLOCK:abc]text"},
		{"lowercase", "[block:1]text"},
		{"leading space", " [BLOCK:1]text"},
		{"overflow", "[BLOCK:99999999999999999999999]text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Index("first\n" + tt.line)
			b := blocks[1]
			if b.Marked {
				t.Errorf("expected malformed marker to be ignored")
			}
			if b.ID != 1 {
				t.Errorf("expected positional id 1, got %d", b.ID)
			}
			if b.Content != tt.line {
				t.Errorf("expected content kept verbatim, got %q", b.Content)
			}
		})
	}
}

func TestIndexEmptyDocumentIsOneBlock(t *testing.T) {
	blocks := Index("")
	if len(blocks) != 1 {
		t.Fatalf("expected the empty document to be one block, got %d", len(blocks))
	}
	if blocks[0] != (Block{}) {
		t.Errorf("expected zero block, got %+v", blocks[0])
	}
	if Count("") != 1 {
		t.Errorf("expected Count(\"\") == 1, got %d", Count(""))
	}
}

func TestIndexTrailingNewline(t *testing.T) {
	blocks := Index("a\nb\n")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[2].Content != "" {
		t.Errorf("expected trailing empty block, got %q", blocks[2].Content)
	}
}

func TestIndexCRLF(t *testing.T) {
	blocks := Index("a\r\n[BLOCK:4]b\r\nc\r")
	want := []Block{
		{Position: 0, ID: 0, Content: "a"},
		{Position: 1, ID: 4, Content: "b", Marked: true},
		{Position: 2, ID: 2, Content: "c"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], want[i])
		}
	}
	if Count("a\r\nb") != 2 {
		t.Errorf("Count(CRLF) = %d", Count("a\r\nb"))
	}
}

func TestIndexIsIdempotent(t *testing.T) {
	docs := []string{
		"",
		"one line",
		"Hello\nWorld",
		"[BLOCK:4]x\n\n[BLOCK:2]y\nz",
		"\n\n\n",
	}
	for _, d := range docs {
		if !reflect.DeepEqual(Index(d), Index(d)) {
			t.Errorf("indexing %q twice gave different blocks", d)
		}
	}
}

func TestCountMatchesIndex(t *testing.T) {
	for _, d := range []string{"", "a", "a\nb", "a\n", "\n\n", "[BLOCK:1]a\n[BLOCK:9]b"} {
		if got, want := Count(d), len(Index(d)); got != want {
			t.Errorf("Count(%q) = %d, want %d", d, got, want)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	original := Index("[BLOCK:10]Title\nbody\n[BLOCK:2]end")
	again := Index(Serialize(original))

	if len(again) != len(original) {
		t.Fatalf("expected %d blocks, got %d", len(original), len(again))
	}
	for i := range original {
		if again[i].ID != original[i].ID {
			t.Errorf("block %d: id %d, want %d", i, again[i].ID, original[i].ID)
		}
		if again[i].Content != original[i].Content {
			t.Errorf("block %d: content %q, want %q", i, again[i].Content, original[i].Content)
		}
		if !again[i].Marked {
			t.Errorf("block %d: expected marker after serialization", i)
		}
	}
}

func TestText(t *testing.T) {
	if got := Text(Index("[BLOCK:5]Hello\nWorld")); got != "Hello\nWorld" {
		t.Errorf("expected markers stripped, got %q", got)
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		doc  string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\n\t\n", true},
		{"[BLOCK:0]", true},
		{"x", false},
		{"\n\nx", false},
	}
	for _, tt := range tests {
		if got := IsBlank(Index(tt.doc)); got != tt.want {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.doc, got, tt.want)
		}
	}
}
