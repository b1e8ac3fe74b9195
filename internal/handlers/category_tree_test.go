package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func catID(n byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = n
	return id
}

func category(id byte, name string, parent *byte) models.Category {
	c := models.Category{ID: catID(id), Name: name}
	if parent != nil {
		parentID := catID(*parent)
		c.ParentID = &parentID
	}
	return c
}

func ptr(b byte) *byte { return &b }

func chainFixture() []models.Category {
	// A(1) -> B(2) -> C(3)
	return []models.Category{
		category(1, "A", nil),
		category(2, "B", ptr(1)),
		category(3, "C", ptr(2)),
	}
}

func TestDescendantIDsCollectsWholeSubtree(t *testing.T) {
	ids := descendantIDs(chainFixture(), catID(1))
	if len(ids) != 2 {
		t.Fatalf("expected 2 descendants, got %d: %v", len(ids), ids)
	}

	want := map[primitive.ObjectID]struct{}{catID(2): {}, catID(3): {}}
	for _, id := range ids {
		if _, ok := want[id]; !ok {
			t.Fatalf("unexpected descendant %s", id.Hex())
		}
		delete(want, id)
	}
}

func TestDescendantIDsExcludesQueriedNode(t *testing.T) {
	for _, id := range descendantIDs(chainFixture(), catID(1)) {
		if id == catID(1) {
			t.Fatal("descendants must not include the queried id")
		}
	}
}

func TestDescendantIDsStaysInsideSubtree(t *testing.T) {
	categories := append(chainFixture(),
		category(4, "OtherRoot", nil),
		category(5, "OtherChild", ptr(4)),
	)

	for _, id := range descendantIDs(categories, catID(2)) {
		if id == catID(4) || id == catID(5) {
			t.Fatalf("descendant %s is outside the queried subtree", id.Hex())
		}
	}
}

func TestDescendantIDsLeafHasNone(t *testing.T) {
	if ids := descendantIDs(chainFixture(), catID(3)); len(ids) != 0 {
		t.Fatalf("expected no descendants for a leaf, got %v", ids)
	}
}

func TestDescendantIDsTerminatesOnCycle(t *testing.T) {
	// 1 -> 2 -> 1 is malformed data; the walk must still finish.
	categories := []models.Category{
		category(1, "A", ptr(2)),
		category(2, "B", ptr(1)),
	}

	ids := descendantIDs(categories, catID(1))
	if len(ids) != 1 || ids[0] != catID(2) {
		t.Fatalf("expected only the direct child, got %v", ids)
	}
}

func TestBuildCategoryNodeNestsChildren(t *testing.T) {
	categories := chainFixture()
	root, ok := findCategory(categories, catID(1))
	if !ok {
		t.Fatal("root not found")
	}

	node := buildCategoryNode(childIndex(categories), root, nil)

	if node.ID != catID(1) || len(node.Children) != 1 {
		t.Fatalf("unexpected root node: %+v", node)
	}
	child := node.Children[0]
	if child.ID != catID(2) || len(child.Children) != 1 {
		t.Fatalf("unexpected mid node: %+v", child)
	}
	leaf := child.Children[0]
	if leaf.ID != catID(3) {
		t.Fatalf("unexpected leaf node: %+v", leaf)
	}
	if leaf.Children == nil || len(leaf.Children) != 0 {
		t.Fatalf("leaf children must be an empty list, got %v", leaf.Children)
	}
}

func TestBuildCategoryForestReturnsAllRoots(t *testing.T) {
	categories := append(chainFixture(), category(4, "OtherRoot", nil))

	forest := buildCategoryForest(categories)
	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
}

func TestBuildCategoryForestEmptyInput(t *testing.T) {
	forest := buildCategoryForest(nil)
	if forest == nil || len(forest) != 0 {
		t.Fatalf("expected empty forest, got %v", forest)
	}
}
