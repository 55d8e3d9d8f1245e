package services

import (
	"bytes"
	"sort"
	"strings"

	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDSet is a set of document ids.
type IDSet map[primitive.ObjectID]struct{}

func (s IDSet) Add(id primitive.ObjectID) { s[id] = struct{}{} }

func (s IDSet) Has(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the ids in a stable order.
func (s IDSet) Slice() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sortObjectIDs(ids)
	return ids
}

func sortObjectIDs(ids []primitive.ObjectID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

// CategoryPathUpdate is a single path rewrite produced by a rename plan.
type CategoryPathUpdate struct {
	Id      primitive.ObjectID
	OldPath string
	NewPath string
}

// CleanCategoryName trims a category name and rejects names that are empty
// or contain the path separator.
func CleanCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", util.Invalidf("category name is required")
	}
	if strings.Contains(name, models.CategoryPathSeparator) {
		return "", util.Invalidf("category name must not contain %q", models.CategoryPathSeparator)
	}
	return name, nil
}

// BuildCategoryPath returns the materialized path of a node named name
// under parent (nil for a root).
func BuildCategoryPath(parent *models.Category, name string) string {
	if parent == nil {
		return name
	}
	return parent.Path + models.CategoryPathSeparator + name
}

// BuildAncestorIds returns the root-first ancestor list of a child of parent.
func BuildAncestorIds(parent *models.Category) []primitive.ObjectID {
	if parent == nil {
		return []primitive.ObjectID{}
	}
	ancestors := make([]primitive.ObjectID, 0, len(parent.AncestorIds)+1)
	ancestors = append(ancestors, parent.AncestorIds...)
	return append(ancestors, parent.Id)
}

// RewriteDescendantPath replaces the exact prefix oldPath+">" of path with
// newPath+">". ok is false when path does not start with that prefix, in
// which case the path must be left untouched.
func RewriteDescendantPath(path, oldPath, newPath string) (string, bool) {
	oldPrefix := oldPath + models.CategoryPathSeparator
	if !strings.HasPrefix(path, oldPrefix) {
		return "", false
	}
	return newPath + models.CategoryPathSeparator + strings.TrimPrefix(path, oldPrefix), true
}

// DescendantsByPath collects root and every category whose path starts with
// root.Path+">".
func DescendantsByPath(all []models.Category, root models.Category) IDSet {
	ids := IDSet{}
	ids.Add(root.Id)
	prefix := root.Path + models.CategoryPathSeparator
	for _, c := range all {
		if strings.HasPrefix(c.Path, prefix) {
			ids.Add(c.Id)
		}
	}
	return ids
}

// DescendantsByWalk collects rootID and its transitive children by a
// breadth-first walk over parentId edges.
func DescendantsByWalk(all []models.Category, rootID primitive.ObjectID) IDSet {
	children := childrenIndex(all)

	ids := IDSet{}
	ids.Add(rootID)
	queue := []primitive.ObjectID{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if ids.Has(child) {
				continue
			}
			ids.Add(child)
			queue = append(queue, child)
		}
	}
	return ids
}

func childrenIndex(all []models.Category) map[primitive.ObjectID][]primitive.ObjectID {
	children := make(map[primitive.ObjectID][]primitive.ObjectID, len(all))
	for _, c := range all {
		if c.IsRoot() {
			continue
		}
		children[*c.ParentId] = append(children[*c.ParentId], c.Id)
	}
	return children
}

// PlanCategoryRename computes the new path of node and the rewritten paths
// of its descendants. Descendants are found by walking the adjacency list;
// any descendant whose stored path does not carry the node's exact old
// prefix is skipped.
func PlanCategoryRename(all []models.Category, node models.Category, newName string) (string, []CategoryPathUpdate) {
	var parentPath string
	if idx := strings.LastIndex(node.Path, models.CategoryPathSeparator); idx >= 0 && !node.IsRoot() {
		parentPath = node.Path[:idx]
	}

	newPath := newName
	if parentPath != "" {
		newPath = parentPath + models.CategoryPathSeparator + newName
	}

	descendants := DescendantsByWalk(all, node.Id)
	updates := make([]CategoryPathUpdate, 0, len(descendants))
	for _, c := range all {
		if c.Id == node.Id || !descendants.Has(c.Id) {
			continue
		}
		rewritten, ok := RewriteDescendantPath(c.Path, node.Path, newPath)
		if !ok || rewritten == c.Path {
			continue
		}
		updates = append(updates, CategoryPathUpdate{Id: c.Id, OldPath: c.Path, NewPath: rewritten})
	}
	return newPath, updates
}

// CategoryLineage is the path and ancestor list derived from the adjacency
// list for one category.
type CategoryLineage struct {
	Path        string
	AncestorIds []primitive.ObjectID
}

// RecomputeCategoryLineage derives every category's path and ancestors from
// names and parentId edges alone. A missing parent or a cycle ends the walk,
// so such a node is treated as a root of what remains.
func RecomputeCategoryLineage(all []models.Category) map[primitive.ObjectID]CategoryLineage {
	byID := make(map[primitive.ObjectID]models.Category, len(all))
	for _, c := range all {
		byID[c.Id] = c
	}

	result := make(map[primitive.ObjectID]CategoryLineage, len(all))
	for _, c := range all {
		names := []string{c.Name}
		ancestors := []primitive.ObjectID{}
		visited := IDSet{}
		visited.Add(c.Id)

		current := c
		for !current.IsRoot() {
			parent, ok := byID[*current.ParentId]
			if !ok || visited.Has(parent.Id) {
				break
			}
			visited.Add(parent.Id)
			names = append(names, parent.Name)
			ancestors = append(ancestors, parent.Id)
			current = parent
		}

		reverseStrings(names)
		reverseObjectIDs(ancestors)
		result[c.Id] = CategoryLineage{
			Path:        strings.Join(names, models.CategoryPathSeparator),
			AncestorIds: ancestors,
		}
	}
	return result
}

// BuildCategoryTree nests categories under their parents. Children are
// ordered by name; categories whose parent is missing are placed at the root
// so that nothing disappears from the display tree.
func BuildCategoryTree(categories []models.Category) []*models.CategoryNode {
	nodes := make(map[primitive.ObjectID]*models.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.Id] = &models.CategoryNode{
			Id:       c.Id,
			Name:     c.Name,
			Slug:     c.Slug,
			Path:     c.Path,
			Children: []*models.CategoryNode{},
		}
	}

	roots := []*models.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.Id]
		if c.IsRoot() {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentId]
		if !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortCategoryNodes(roots)
	return roots
}

func sortCategoryNodes(nodes []*models.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name == nodes[j].Name {
			return bytes.Compare(nodes[i].Id[:], nodes[j].Id[:]) < 0
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortCategoryNodes(n.Children)
	}
}

// CountCategoryNodes counts every node reachable from roots.
func CountCategoryNodes(roots []*models.CategoryNode) int {
	count := 0
	for _, n := range roots {
		count += 1 + CountCategoryNodes(n.Children)
	}
	return count
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseObjectIDs(s []primitive.ObjectID) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
