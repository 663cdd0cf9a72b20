package router

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		selected      Page
		authenticated bool
		want          Page
	}{
		{Trending, false, Auth},
		{Auth, false, Auth},
		{Trending, true, Trending},
		{Settings, true, Settings},
		{Page("bogus"), true, Dashboard},
		{Auth, true, Dashboard},
	}
	for _, tt := range tests {
		if got := Resolve(tt.selected, tt.authenticated); got != tt.want {
			t.Errorf("Resolve(%q, %v) = %q, want %q", tt.selected, tt.authenticated, got, tt.want)
		}
	}
}

func TestNextPrevCycle(t *testing.T) {
	p := Dashboard
	for range Pages {
		p = Next(p)
	}
	if p != Dashboard {
		t.Fatalf("Next did not cycle back, got %q", p)
	}
	if Prev(Dashboard) != Settings {
		t.Fatalf("Prev(Dashboard) = %q", Prev(Dashboard))
	}
	if Next(Auth) != Dashboard {
		t.Fatalf("Next(Auth) = %q", Next(Auth))
	}
}

func TestParse(t *testing.T) {
	if Parse(" Trending ") != Trending {
		t.Fatal("expected trending")
	}
	if Parse("nope") != Dashboard {
		t.Fatal("expected dashboard fallback")
	}
}
