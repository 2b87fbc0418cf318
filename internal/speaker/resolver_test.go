package speaker

import (
	"context"
	"errors"
	"testing"
)

type fakeLookup struct {
	names map[string]string
	calls map[string]int
	fail  bool
}

func (f *fakeLookup) ResolveContactName(_ context.Context, id string) (string, bool, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[id]++
	if f.fail {
		return "", false, errors.New("store gone")
	}
	name, ok := f.names[id]
	return name, ok, nil
}

func TestSplit(t *testing.T) {
	id, body, ok := Split("wxid_abc:\nhello there")
	if !ok || id != "wxid_abc" || body != "hello there" {
		t.Fatalf("Split=%q,%q,%v", id, body, ok)
	}

	_, body, ok = Split("no prefix here")
	if ok || body != "no prefix here" {
		t.Fatalf("Split without prefix=%q,%v", body, ok)
	}
}

func TestDirectoryCachesHitsAndMisses(t *testing.T) {
	lookup := &fakeLookup{names: map[string]string{"wxid_abc": "Alice"}}
	dir := NewDirectory(lookup)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got := dir.Resolve(ctx, "wxid_abc"); got != "Alice" {
			t.Fatalf("Resolve hit=%q", got)
		}
		if got := dir.Resolve(ctx, "wxid_zzz"); got != "wxid_zzz" {
			t.Fatalf("Resolve miss=%q", got)
		}
	}
	if lookup.calls["wxid_abc"] != 1 || lookup.calls["wxid_zzz"] != 1 {
		t.Fatalf("lookup calls=%v, repeats not cached", lookup.calls)
	}
}

func TestDirectoryLookupFailureFallsBack(t *testing.T) {
	dir := NewDirectory(&fakeLookup{fail: true})
	if got := dir.Resolve(context.Background(), "wxid_abc"); got != "wxid_abc" {
		t.Fatalf("Resolve on failure=%q", got)
	}
}

func TestResolverRules(t *testing.T) {
	lookup := &fakeLookup{names: map[string]string{"wxid_abc": "Alice"}}
	r := NewResolver(NewDirectory(lookup), "Owner")
	ctx := context.Background()

	// Prefixed: directory resolution, body stripped.
	spk, body := r.Resolve(ctx, "wxid_abc:\nhi", 1)
	if spk != "Alice" || body != "hi" {
		t.Fatalf("prefixed=%q,%q", spk, body)
	}

	// Video fragment names the speaker directly.
	spk, _ = r.Resolve(ctx, `<msg><videomsg fromusername="Bob" length="3"></videomsg></msg>`, 43)
	if spk != "Bob" {
		t.Fatalf("video speaker=%q", spk)
	}

	// Malformed fragment: placeholder, never an error.
	spk, _ = r.Resolve(ctx, "<broken", 48)
	if spk != Unknown {
		t.Fatalf("malformed fragment speaker=%q", spk)
	}

	// System notice.
	spk, _ = r.Resolve(ctx, "somebody joined the group", 10000)
	if spk != System {
		t.Fatalf("system speaker=%q", spk)
	}

	// Unprefixed text: the owner posted it.
	spk, body = r.Resolve(ctx, "my own message", 1)
	if spk != "Owner" || body != "my own message" {
		t.Fatalf("owner=%q,%q", spk, body)
	}
}
