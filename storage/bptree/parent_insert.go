package bptree

import "pagedb/storage/page"

// promote inserts (sepKey, rightID) as a new separator/child pair above
// leftID: into leftID's parent if it has one (per path), or into a
// freshly created root if leftID was the root. path is the chain of
// ancestor page ids collected by descendWithPath, from root to (excluding)
// the node that just split; its last element, if any, is the immediate
// parent.
func (t *Tree) promote(leftID page.ID, sepKey int64, rightID page.ID, path []page.ID) error {
	if len(path) == 0 {
		return t.createNewRoot(leftID, sepKey, rightID)
	}

	parentID := path[len(path)-1]
	pg, parent, err := t.fetchNode(parentID)
	if err != nil {
		return err
	}

	idx := 0
	for idx < len(parent.Children) && parent.Children[idx] != leftID {
		idx++
	}
	if idx >= len(parent.Children) {
		idx = len(parent.Children) - 1
	}

	parent.Keys = insertAt(parent.Keys, idx, sepKey)
	parent.Children = insertAt(parent.Children, idx+1, rightID)

	if err := t.setParentOf(rightID, parentID); err != nil {
		t.release(pg, false)
		return err
	}

	if len(parent.Keys) <= F {
		return t.writeAndRelease(pg, parent, true)
	}

	return t.splitInternal(pg, parent, path[:len(path)-1])
}

// createNewRoot builds a fresh internal root over leftID and rightID,
// separated by sepKey, used both when the previous root (a leaf or an
// internal node) splits.
func (t *Tree) createNewRoot(leftID page.ID, sepKey int64, rightID page.ID) error {
	rootPg, err := t.pool.NewPage(page.TypeBTreeInternal)
	if err != nil {
		return err
	}

	root := &Node{
		ID:       rootPg.ID,
		Leaf:     false,
		Parent:   page.InvalidID,
		Keys:     []int64{sepKey},
		Children: []page.ID{leftID, rightID},
	}

	if err := t.setParentOf(leftID, rootPg.ID); err != nil {
		t.release(rootPg, false)
		return err
	}
	if err := t.setParentOf(rightID, rootPg.ID); err != nil {
		t.release(rootPg, false)
		return err
	}

	if err := t.writeAndRelease(rootPg, root, true); err != nil {
		return err
	}

	t.root = rootPg.ID
	t.rootIsLeaf = false
	return nil
}

// setParentOf rewrites childID's stored Parent pointer to newParent.
func (t *Tree) setParentOf(childID, newParent page.ID) error {
	pg, n, err := t.fetchNode(childID)
	if err != nil {
		return err
	}
	n.Parent = newParent
	return t.writeAndRelease(pg, n, true)
}
