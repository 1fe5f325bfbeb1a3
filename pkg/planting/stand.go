package planting

// Stand is the working tree collection of one run. It is owned by the
// driver passes; Place only ever sees snapshots of it.
type Stand struct {
	trees []Tree
	added int
}

// NewStand creates a stand from a copy of trees.
func NewStand(trees []Tree) *Stand {
	s := &Stand{trees: make([]Tree, len(trees))}
	copy(s.trees, trees)
	return s
}

// Len returns the number of trees in the stand.
func (s *Stand) Len() int {
	return len(s.trees)
}

// At returns the i-th tree.
func (s *Stand) At(i int) Tree {
	return s.trees[i]
}

// Trees returns a copy of the stand.
func (s *Stand) Trees() []Tree {
	out := make([]Tree, len(s.trees))
	copy(out, s.trees)
	return out
}

// Snapshot returns a read-only view of the stand for collision checks.
// Appends to the stand never show through an earlier snapshot.
func (s *Stand) Snapshot() []Tree {
	return s.trees[:len(s.trees):len(s.trees)]
}

// SnapshotExcept returns the stand without the i-th tree.
func (s *Stand) SnapshotExcept(i int) []Tree {
	out := make([]Tree, 0, len(s.trees)-1)
	out = append(out, s.trees[:i]...)
	return append(out, s.trees[i+1:]...)
}

// Replace overwrites the i-th tree.
func (s *Stand) Replace(i int, t Tree) {
	s.trees[i] = t
}

// Add appends a tree and returns its index.
func (s *Stand) Add(t Tree) int {
	s.trees = append(s.trees, t)
	s.added++
	return len(s.trees) - 1
}

// Added returns how many trees were appended since the stand was created.
func (s *Stand) Added() int {
	return s.added
}
