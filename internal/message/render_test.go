package message

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := map[int]Kind{
		1:     KindText,
		3:     KindImage,
		34:    KindAudio,
		42:    KindOther,
		43:    KindVideo,
		47:    KindEmoji,
		48:    KindLocation,
		49:    KindLink,
		10000: KindSystem,
		777:   KindOther,
	}
	for tag, want := range cases {
		if got := KindOf(tag); got != want {
			t.Fatalf("KindOf(%d)=%v want %v", tag, got, want)
		}
	}
}

func TestRenderText(t *testing.T) {
	r := NewRenderer(t.TempDir())
	got := r.Render(KindText, "hello\n<world> & co", 1)
	want := "hello<br />&lt;world&gt; &amp; co"
	if got != want {
		t.Fatalf("Render text=%q want %q", got, want)
	}
}

func TestRenderImage(t *testing.T) {
	root := t.TempDir()
	imgDir := filepath.Join(root, "Img")
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r := NewRenderer(root)

	// Thumbnail only.
	if err := os.WriteFile(filepath.Join(imgDir, "7.t.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := r.Render(KindImage, "", 7)
	if got != `<img src="Img/7.t.jpg" />` {
		t.Fatalf("thumbnail only=%q", got)
	}

	// Full image present: thumbnail links to it.
	if err := os.WriteFile(filepath.Join(imgDir, "7.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got = r.Render(KindImage, "", 7)
	if got != `<a href="Img/7.jpg"><img src="Img/7.t.jpg" /></a>` {
		t.Fatalf("linked image=%q", got)
	}
}

func TestRenderAudioVideoNoExistenceCheck(t *testing.T) {
	r := NewRenderer(t.TempDir())
	audio := r.Render(KindAudio, "", 12)
	if !strings.Contains(audio, `src="Audio/12.wav"`) {
		t.Fatalf("audio=%q", audio)
	}
	video := r.Render(KindVideo, "", 12)
	if !strings.Contains(video, `src="Video/12.mp4"`) {
		t.Fatalf("video=%q", video)
	}
}

func TestRenderEmoji(t *testing.T) {
	r := NewRenderer(t.TempDir())
	got := r.Render(KindEmoji, `<msg><emoji md5="abc123" len="5"></emoji></msg>`, 1)
	if got != `<img height="80px" src="emoticon1/abc123.t.jpg" />` {
		t.Fatalf("emoji=%q", got)
	}

	for _, bad := range []string{"not xml <", "<msg></msg>", `<msg><emoji></emoji></msg>`} {
		got := r.Render(KindEmoji, bad, 1)
		if !strings.Contains(got, "an unknown emotion") {
			t.Fatalf("emoji fallback for %q=%q", bad, got)
		}
	}
}

func TestRenderLocation(t *testing.T) {
	r := NewRenderer(t.TempDir())
	got := r.Render(KindLocation, `<msg><location x="30.5" y="114.3" scale="15" label="East Lake"></location></msg>`, 1)
	want := `<a href="https://www.google.com/maps/@30.5,114.3,15z">East Lake</a>`
	if got != want {
		t.Fatalf("location=%q want %q", got, want)
	}

	got = r.Render(KindLocation, "<broken", 1)
	if !strings.Contains(got, "an unknown location") {
		t.Fatalf("location fallback=%q", got)
	}
}

func TestRenderLink(t *testing.T) {
	r := NewRenderer(t.TempDir())
	payload := `<msg><appmsg appid=""><title>A Story</title><des>About things</des><url>http://example.com/a</url><type>5</type></appmsg></msg>`
	got := r.Render(KindLink, payload, 1)
	want := `<a href="http://example.com/a"><div class="title">A Story</div><div class="des">About things</div></a>`
	if got != want {
		t.Fatalf("link=%q want %q", got, want)
	}

	got = r.Render(KindLink, "junk", 1)
	if !strings.Contains(got, "an unknown link") {
		t.Fatalf("link fallback=%q", got)
	}
}

func TestRenderLinkExportedFile(t *testing.T) {
	root := t.TempDir()
	odDir := filepath.Join(root, "OpenData")
	if err := os.MkdirAll(odDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r := NewRenderer(root)
	payload := `<msg><appmsg><title>notes.pdf</title><type>6</type></appmsg></msg>`

	// No exported file yet: placeholder carrying the title.
	got := r.Render(KindLink, payload, 42)
	if !strings.Contains(got, "notes.pdf") || !strings.Contains(got, "unknown") {
		t.Fatalf("file link without file=%q", got)
	}

	if err := os.WriteFile(filepath.Join(odDir, "42.pdf"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got = r.Render(KindLink, payload, 42)
	if got != `<a href="OpenData/42.pdf">notes.pdf</a>` {
		t.Fatalf("file link=%q", got)
	}
}

func TestHandlersAreIdempotent(t *testing.T) {
	r := NewRenderer(t.TempDir())
	inputs := []struct {
		kind Kind
		body string
		id   int64
	}{
		{KindText, "line one\nline two", 1},
		{KindAudio, "", 2},
		{KindVideo, "", 3},
		{KindEmoji, `<msg><emoji md5="ff00"></emoji></msg>`, 4},
		{KindLocation, `<msg><location x="1" y="2" scale="3" label="l"></location></msg>`, 5},
		{KindSystem, "somebody joined", 6},
	}
	for _, in := range inputs {
		first := r.Render(in.kind, in.body, in.id)
		second := r.Render(in.kind, in.body, in.id)
		if first != second {
			t.Fatalf("kind %v not idempotent: %q then %q", in.kind, first, second)
		}
	}
}

func TestFromUser(t *testing.T) {
	from, ok := FromUser(`<msg><videomsg fromusername="wxid_v" length="9"></videomsg></msg>`)
	if !ok || from != "wxid_v" {
		t.Fatalf("FromUser=%q,%v", from, ok)
	}
	if _, ok := FromUser("<not-closed"); ok {
		t.Fatal("expected failure on malformed fragment")
	}
	if _, ok := FromUser("<msg></msg>"); ok {
		t.Fatal("expected failure when no child carries the attribute")
	}
}
