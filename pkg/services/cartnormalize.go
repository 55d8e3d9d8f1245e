package services

import (
	"bytes"
	"math"
	"sort"

	"storefront-api-io/api/pkg/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Legacy cart documents carried the product reference under several names.
// The first field holding a non-empty value decides; later fields are not
// consulted when that value is unusable.
var cartProductIdFields = []string{"product_id", "productId", "pid"}

var cartQtyFields = []string{"qty", "quantity"}

// legacyCartFields are removed from every surviving document.
var legacyCartFields = []string{"productId", "pid", "quantity"}

// RawCartEntry is a cart document as stored, before any schema is applied.
type RawCartEntry struct {
	Id  primitive.ObjectID
	Doc bson.M
}

// CartRewrite brings a surviving cart document to the canonical shape.
type CartRewrite struct {
	Id        primitive.ObjectID
	ProductId primitive.ObjectID
	Qty       int
}

// CartNormalizationPlan lists the writes needed to normalize one user's cart.
// Deletes must be applied before rewrites so that the rewrites never collide
// on the (userId, product_id) unique index.
type CartNormalizationPlan struct {
	Delete  []primitive.ObjectID
	Rewrite []CartRewrite
}

func (p CartNormalizationPlan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Rewrite) == 0
}

// ExtractCartProductID returns the product referenced by a raw cart document.
// The canonical product_id is preferred whenever it holds a value.
func ExtractCartProductID(doc bson.M) (primitive.ObjectID, bool) {
	for _, field := range cartProductIdFields {
		v, ok := doc[field]
		if !ok || isEmptyCartValue(v) {
			continue
		}
		return coerceObjectID(v)
	}
	return primitive.NilObjectID, false
}

// isEmptyCartValue reports values that count as absent: null, empty
// strings, false and numeric zero.
func isEmptyCartValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case primitive.Null, primitive.Undefined:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int32:
		return t == 0
	case int64:
		return t == 0
	case int:
		return t == 0
	case float64:
		return t == 0
	default:
		return false
	}
}

// ExtractCartQty returns the quantity of a raw cart document. Missing,
// non-numeric and non-positive values count as 1.
func ExtractCartQty(doc bson.M) int {
	for _, field := range cartQtyFields {
		v, ok := doc[field]
		if !ok {
			continue
		}
		if n, ok := coerceQty(v); ok {
			return n
		}
	}
	return 1
}

func coerceObjectID(v any) (primitive.ObjectID, bool) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, !t.IsZero()
	case string:
		return util.LenientObjectID(t)
	default:
		return primitive.NilObjectID, false
	}
}

func coerceQty(v any) (int, bool) {
	var n int64
	switch t := v.(type) {
	case int32:
		n = int64(t)
	case int64:
		n = t
	case int:
		n = int64(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		n = int64(t)
	default:
		return 0, false
	}
	if n < 1 {
		return 1, true
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n), true
}

// isCanonicalCartDoc reports whether doc already stores productID as an
// ObjectID under product_id, an integer qty equal to qty, and no legacy field.
func isCanonicalCartDoc(doc bson.M, productID primitive.ObjectID, qty int) bool {
	if stored, ok := doc["product_id"].(primitive.ObjectID); !ok || stored != productID {
		return false
	}
	for _, field := range legacyCartFields {
		if _, ok := doc[field]; ok {
			return false
		}
	}
	switch stored := doc["qty"].(type) {
	case int32:
		return int(stored) == qty
	case int64:
		return int(stored) == qty
	case int:
		return stored == qty
	default:
		return false
	}
}

// PlanCartNormalization computes the writes that turn one user's raw cart
// documents into at most one canonical document per product. Entries are
// grouped by extracted product id; the entry with the lowest _id survives
// and receives the summed quantity. Entries without a usable product id are
// deleted. Running the plan against an already normalized cart yields an
// empty plan.
func PlanCartNormalization(entries []RawCartEntry) CartNormalizationPlan {
	sorted := make([]RawCartEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Id[:], sorted[j].Id[:]) < 0
	})

	type group struct {
		survivor RawCartEntry
		total    int
	}
	groups := map[primitive.ObjectID]*group{}
	order := []primitive.ObjectID{}

	plan := CartNormalizationPlan{}
	for _, entry := range sorted {
		productID, ok := ExtractCartProductID(entry.Doc)
		if !ok {
			plan.Delete = append(plan.Delete, entry.Id)
			continue
		}
		qty := ExtractCartQty(entry.Doc)
		g, seen := groups[productID]
		if !seen {
			groups[productID] = &group{survivor: entry, total: qty}
			order = append(order, productID)
			continue
		}
		g.total = clampCartQty(g.total + qty)
		plan.Delete = append(plan.Delete, entry.Id)
	}

	for _, productID := range order {
		g := groups[productID]
		if isCanonicalCartDoc(g.survivor.Doc, productID, g.total) {
			continue
		}
		plan.Rewrite = append(plan.Rewrite, CartRewrite{
			Id:        g.survivor.Id,
			ProductId: productID,
			Qty:       g.total,
		})
	}
	return plan
}

func clampCartQty(n int) int {
	if n > math.MaxInt32 || n < 0 {
		return math.MaxInt32
	}
	return n
}

// LegacyCartUnset is the $unset document applied to every rewritten entry.
func LegacyCartUnset() bson.M {
	unset := bson.M{}
	for _, field := range legacyCartFields {
		unset[field] = ""
	}
	return unset
}
