package handlers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// CategoryNode is one node of the nested category tree response.
type CategoryNode struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Children []CategoryNode     `json:"children"`
}

// childIndex groups categories by parent id. Roots (nil parent) are keyed by
// the nil ObjectID.
func childIndex(categories []models.Category) map[primitive.ObjectID][]models.Category {
	index := make(map[primitive.ObjectID][]models.Category, len(categories))
	for _, category := range categories {
		parent := primitive.NilObjectID
		if category.ParentID != nil {
			parent = *category.ParentID
		}
		index[parent] = append(index[parent], category)
	}
	return index
}

func findCategory(categories []models.Category, id primitive.ObjectID) (models.Category, bool) {
	for _, category := range categories {
		if category.ID == id {
			return category, true
		}
	}
	return models.Category{}, false
}

// descendantIDs collects every category below root, excluding root itself.
// The walk keeps a visited set so it terminates even if the stored data has
// a parent cycle.
func descendantIDs(categories []models.Category, rootID primitive.ObjectID) []primitive.ObjectID {
	index := childIndex(categories)

	visited := map[primitive.ObjectID]struct{}{rootID: {}}
	descendants := make([]primitive.ObjectID, 0)

	queue := []primitive.ObjectID{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range index[current] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			descendants = append(descendants, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return descendants
}

// buildCategoryNode serializes the subtree rooted at category. Children are
// resolved through the parentId index; an empty subtree yields an empty
// children list, never nil. Visited guards against malformed cyclic data.
func buildCategoryNode(index map[primitive.ObjectID][]models.Category, category models.Category, visited map[primitive.ObjectID]struct{}) CategoryNode {
	if visited == nil {
		visited = map[primitive.ObjectID]struct{}{}
	}
	visited[category.ID] = struct{}{}

	node := CategoryNode{
		ID:       category.ID,
		Name:     category.Name,
		Children: make([]CategoryNode, 0),
	}

	for _, child := range index[category.ID] {
		if _, seen := visited[child.ID]; seen {
			continue
		}
		node.Children = append(node.Children, buildCategoryNode(index, child, visited))
	}

	return node
}

// buildCategoryForest serializes every root category into a nested tree.
func buildCategoryForest(categories []models.Category) []CategoryNode {
	index := childIndex(categories)

	forest := make([]CategoryNode, 0)
	for _, root := range index[primitive.NilObjectID] {
		forest = append(forest, buildCategoryNode(index, root, nil))
	}
	return forest
}
