package swim

import "testing"

func TestRumorStoreTakeRespectsQuota(t *testing.T) {
	// With a fixed membership size of 3, the 3*ln(n)+1 formula gives a quota
	// of 4: a rumor survives 4 PopN calls before it is retired.
	s := newRumorStore(func() int { return 3 })
	s.record(rumor{alive: true, id: "x", incarnation: 1})

	for i := 0; i < 4; i++ {
		got := s.take(1)
		if len(got) != 1 || got[0].id != "x" {
			t.Fatalf("take #%d: got %+v, want one rumor about x", i, got)
		}
	}
	if got := s.take(1); len(got) != 0 {
		t.Errorf("after quota exhausted: got %+v, want none", got)
	}
}

func TestRumorStoreRecordReplacesPending(t *testing.T) {
	s := newRumorStore(func() int { return 3 })
	s.record(rumor{alive: true, id: "x", incarnation: 1})
	s.record(rumor{alive: false, id: "x", incarnation: 2})

	got := s.take(1)
	if len(got) != 1 || got[0].alive || got[0].incarnation != 2 {
		t.Fatalf("got %+v, want the dead/incarnation-2 rumor to supersede the alive one", got)
	}
}

func TestRumorStoreForgetRemovesPending(t *testing.T) {
	s := newRumorStore(func() int { return 3 })
	s.record(rumor{alive: true, id: "x", incarnation: 1})
	s.forget("x")

	if got := s.take(1); len(got) != 0 {
		t.Errorf("got %+v, want no rumors after forget", got)
	}
}

func TestRumorStoreTakeMultiple(t *testing.T) {
	s := newRumorStore(func() int { return 3 })
	s.record(rumor{alive: true, id: "x", incarnation: 1})
	s.record(rumor{alive: true, id: "y", incarnation: 1})

	got := s.take(5)
	if len(got) != 2 {
		t.Fatalf("got %d rumors, want 2", len(got))
	}
}
