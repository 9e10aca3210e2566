package comments

import (
	"sort"

	"github.com/example/blog-platform/services/blog/internal/store"
)

// Node is a comment with its nested replies.
type Node struct {
	store.Comment
	Replies []Node `json:"replies"`
}

// forest groups a flat comment list by parent so trees can be built in one pass.
type forest struct {
	children       map[int64][]store.Comment
	roots          []store.Comment
	includeBlocked bool
	visited        map[int64]bool
}

// newForest expects flat ordered by created_at ASC, id ASC; child lists keep that order.
func newForest(flat []store.Comment, includeBlocked bool) *forest {
	f := &forest{
		children:       make(map[int64][]store.Comment),
		includeBlocked: includeBlocked,
		visited:        make(map[int64]bool, len(flat)),
	}
	for _, c := range flat {
		if c.ParentID == nil {
			f.roots = append(f.roots, c)
			continue
		}
		f.children[*c.ParentID] = append(f.children[*c.ParentID], c)
	}
	return f
}

func (f *forest) hidden(c store.Comment) bool {
	return f.visited[c.ID] || (c.IsBlocked && !f.includeBlocked)
}

func (f *forest) build(c store.Comment) Node {
	f.visited[c.ID] = true
	return Node{Comment: c, Replies: f.below(c.ID)}
}

// below returns the visible reply trees under parentID. A hidden comment
// prunes its whole subtree.
func (f *forest) below(parentID int64) []Node {
	out := []Node{}
	for _, child := range f.children[parentID] {
		if f.hidden(child) {
			continue
		}
		out = append(out, f.build(child))
	}
	return out
}

// threads returns the top-level trees, newest first.
func (f *forest) threads() []Node {
	roots := append([]store.Comment(nil), f.roots...)
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].ID > roots[j].ID
	})
	out := []Node{}
	for _, r := range roots {
		if f.hidden(r) {
			continue
		}
		out = append(out, f.build(r))
	}
	return out
}
