package uri

import "testing"

func TestValidateName(t *testing.T) {
	cases := map[string]bool{
		"worker":    true,
		"worker-1":  true,
		"worker_1":  true,
		"Worker123": true,
		"":          false,
		"bad name":  false,
		"bad/name":  false,
		"bad*name":  false,
	}

	for name, want := range cases {
		err := ValidateName(name)
		if (err == nil) != want {
			t.Errorf("ValidateName(%q): got err=%v, want valid=%v", name, err, want)
		}
	}
}

func TestValidatePath(t *testing.T) {
	cases := map[string]bool{
		"/user/a/b":   true,
		"/user/*/b":   true,
		"user/a.b-c_d": true,
		"/user/ a":    false,
		"/user/#":     false,
	}

	for p, want := range cases {
		err := ValidatePath(p)
		if (err == nil) != want {
			t.Errorf("ValidatePath(%q): got err=%v, want valid=%v", p, err, want)
		}
	}
}

func TestChild(t *testing.T) {
	parent := ActorUri{Name: "a", Path: "/user/a", Host: "localhost"}

	child, err := Child(parent, "b", "localhost", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if child.Path != "/user/a/b" {
		t.Errorf("got path %q, want /user/a/b", child.Path)
	}
	if child.Uid != 7 {
		t.Errorf("got uid %d, want 7", child.Uid)
	}

	if _, err := Child(parent, "bad name", "localhost", 8); err == nil {
		t.Error("expected error for invalid child name")
	}
}

func TestSegments(t *testing.T) {
	got := Segments("/user/a/b/")
	want := []string{"user", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if got := Segments("/"); got != nil {
		t.Errorf("expected nil segments for root, got %v", got)
	}
}
