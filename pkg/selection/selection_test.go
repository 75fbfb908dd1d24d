package selection

import (
	"slices"
	"testing"

	"github.com/matzehuels/linkboard/pkg/graph"
)

func TestSetOperations(t *testing.T) {
	a, b, ab := Node("a"), Node("b"), Link("a", "b")

	s := Of(a, b, a)
	if s.Len() != 2 {
		t.Fatalf("Of() deduplicated to %d refs, want 2", s.Len())
	}

	toggled := s.Toggle(a)
	if toggled.Contains(a) || !s.Contains(a) {
		t.Error("Toggle(a) did not remove a, or mutated the receiver")
	}
	if !toggled.Toggle(a).Contains(a) {
		t.Error("second Toggle(a) did not add a")
	}

	u := Of(b).Union(Of(ab, b))
	if got := u.Refs(); !slices.Equal(got, []Ref{b, ab}) {
		t.Errorf("Union() = %v", got)
	}
	if got := u.NodeIDs(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("NodeIDs() = %v", got)
	}
	if got := u.Links(); len(got) != 1 || got[0].String() != "a-b" {
		t.Errorf("Links() = %v", got)
	}

	if !Of(a).Only(a) || Of(a, b).Only(a) || Of().Only(a) {
		t.Error("Only() mismatch")
	}
	if !Of(a, b).Equal(Of(b, a)) || Of(a).Equal(Of(b)) {
		t.Error("Equal() mismatch")
	}
	if got := Of(a, ab).String(); got != "{node:a, link:a-b}" {
		t.Errorf("String() = %q", got)
	}
}

func TestSetFilter(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(graph.NewNode("a", graph.DefaultNodeType, 0, 0, graph.DefaultRadius, nil))
	_ = g.AddNode(graph.NewNode("b", graph.DefaultNodeType, 0, 0, graph.DefaultRadius, nil))
	_ = g.AddLink(graph.NewLink("a", "b", nil))

	s := Of(Node("a"), Node("b"), Link("a", "b"), Link("b", "a"), Node("gone"))
	got := s.Filter(g)
	if want := Of(Node("a"), Node("b"), Link("a", "b")); !got.Equal(want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}

	g.RemoveNode("b")
	if got := got.Filter(g); !got.Equal(Nodes("a")) {
		t.Errorf("Filter() after RemoveNode = %v, want {node:a}", got)
	}
}

func TestStore(t *testing.T) {
	st := NewStore()
	var seen []Set
	cancel := st.Subscribe(func(s Set) { seen = append(seen, s) })

	st.Replace(Nodes("a"))
	st.Replace(Nodes("a")) // unchanged, no notification
	st.Replace(Nodes("a", "b"))
	st.Clear()

	if len(seen) != 3 {
		t.Fatalf("notifications = %d, want 3", len(seen))
	}
	if !seen[1].Equal(Nodes("a", "b")) || !seen[2].IsEmpty() {
		t.Errorf("notifications = %v", seen)
	}

	cancel()
	st.Replace(Nodes("c"))
	if len(seen) != 3 {
		t.Error("cancelled subscriber was notified")
	}
	if !st.Load().Equal(Nodes("c")) {
		t.Errorf("Load() = %v", st.Load())
	}
}

func TestStoreSync(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(graph.NewNode("a", graph.DefaultNodeType, 0, 0, graph.DefaultRadius, nil))

	var st Store
	st.Replace(Nodes("a", "b"))
	if got := st.Sync(g); !got.Equal(Nodes("a")) {
		t.Errorf("Sync() = %v, want {node:a}", got)
	}
}
