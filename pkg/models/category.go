package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryPathSeparator joins ancestor names in a materialized path.
const CategoryPathSeparator = ">"

// CategoryTreeDocumentID is the _id of the singleton denormalized tree.
const CategoryTreeDocumentID = "tree"

type Category struct {
	Id          primitive.ObjectID   `bson:"_id" json:"_id"`
	Name        string               `bson:"name" json:"name"`
	Slug        string               `bson:"slug" json:"slug"`
	ParentId    *primitive.ObjectID  `bson:"parentId" json:"parentId"`
	Path        string               `bson:"path" json:"path"`
	AncestorIds []primitive.ObjectID `bson:"ancestorIds" json:"ancestorIds"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	ModifiedAt  time.Time            `bson:"modifiedAt" json:"modifiedAt"`

	ParentName string `bson:"-" json:"parentName,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentId == nil || c.ParentId.IsZero()
}

type CategoryNode struct {
	Id       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Slug     string             `bson:"slug" json:"slug"`
	Path     string             `bson:"path" json:"path"`
	Children []*CategoryNode    `bson:"children" json:"children"`
}

// CategoryTree is the denormalized display tree kept in categories_tree.
type CategoryTree struct {
	Id        string          `bson:"_id" json:"-"`
	Roots     []*CategoryNode `bson:"roots" json:"roots"`
	Count     int             `bson:"count" json:"count"`
	RebuiltAt time.Time       `bson:"rebuiltAt" json:"rebuiltAt"`
}

type CategoryRequest struct {
	Name     string `form:"name" json:"name" validate:"required,max=80"`
	ParentId string `form:"parentId" json:"parentId"`
}

type CategoryRenameRequest struct {
	Name string `form:"name" json:"name" validate:"required,max=80"`
}

// CategoryRepairResult summarises a RepairCategories run.
type CategoryRepairResult struct {
	PathsFixed      int   `json:"pathsFixed"`
	ProductsCleaned int64 `json:"productsCleaned"`
	TreeNodes       int   `json:"treeNodes"`
}
