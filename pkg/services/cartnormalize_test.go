package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func objectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

// applyPlan mimics ApplyCartNormalization on in-memory documents.
func applyPlan(entries []RawCartEntry, plan CartNormalizationPlan) []RawCartEntry {
	deleted := IDSet{}
	for _, id := range plan.Delete {
		deleted.Add(id)
	}
	rewrites := map[primitive.ObjectID]CartRewrite{}
	for _, rw := range plan.Rewrite {
		rewrites[rw.Id] = rw
	}

	out := []RawCartEntry{}
	for _, e := range entries {
		if deleted.Has(e.Id) {
			continue
		}
		doc := bson.M{}
		for k, v := range e.Doc {
			doc[k] = v
		}
		if rw, ok := rewrites[e.Id]; ok {
			doc["product_id"] = rw.ProductId
			doc["qty"] = int32(rw.Qty)
			for field := range LegacyCartUnset() {
				delete(doc, field)
			}
		}
		out = append(out, RawCartEntry{Id: e.Id, Doc: doc})
	}
	return out
}

func TestPlanCartNormalizationMergesDuplicates(t *testing.T) {
	product := primitive.NewObjectID()
	first := objectID(t, "000000000000000000000001")
	second := objectID(t, "000000000000000000000002")

	entries := []RawCartEntry{
		{Id: second, Doc: bson.M{"_id": second, "product_id": product, "qty": int32(3)}},
		{Id: first, Doc: bson.M{"_id": first, "product_id": product, "qty": int32(2)}},
	}

	plan := PlanCartNormalization(entries)

	assert.Equal(t, []primitive.ObjectID{second}, plan.Delete)
	require.Len(t, plan.Rewrite, 1)
	assert.Equal(t, CartRewrite{Id: first, ProductId: product, Qty: 5}, plan.Rewrite[0])
}

func TestPlanCartNormalizationIsIdempotent(t *testing.T) {
	product := primitive.NewObjectID()
	other := primitive.NewObjectID()
	ids := []primitive.ObjectID{
		objectID(t, "000000000000000000000001"),
		objectID(t, "000000000000000000000002"),
		objectID(t, "000000000000000000000003"),
		objectID(t, "000000000000000000000004"),
	}

	entries := []RawCartEntry{
		{Id: ids[0], Doc: bson.M{"_id": ids[0], "productId": product.Hex(), "quantity": int64(1)}},
		{Id: ids[1], Doc: bson.M{"_id": ids[1], "pid": "ObjectId('" + product.Hex() + "')", "qty": 2.0}},
		{Id: ids[2], Doc: bson.M{"_id": ids[2], "product_id": other, "qty": int32(1)}},
		{Id: ids[3], Doc: bson.M{"_id": ids[3], "product_id": "not-an-id"}},
	}

	plan := PlanCartNormalization(entries)
	assert.ElementsMatch(t, []primitive.ObjectID{ids[1], ids[3]}, plan.Delete)
	require.Len(t, plan.Rewrite, 1)
	assert.Equal(t, CartRewrite{Id: ids[0], ProductId: product, Qty: 3}, plan.Rewrite[0])

	normalized := applyPlan(entries, plan)
	require.Len(t, normalized, 2)
	assert.True(t, PlanCartNormalization(normalized).Empty())
}

func TestPlanCartNormalizationCanonicalCartIsUntouched(t *testing.T) {
	id := primitive.NewObjectID()
	entries := []RawCartEntry{
		{Id: id, Doc: bson.M{"_id": id, "product_id": primitive.NewObjectID(), "qty": int32(4)}},
	}

	assert.True(t, PlanCartNormalization(entries).Empty())
}

func TestPlanCartNormalizationRewritesLegacyFieldsEvenWhenValuesMatch(t *testing.T) {
	id := primitive.NewObjectID()
	product := primitive.NewObjectID()
	entries := []RawCartEntry{
		{Id: id, Doc: bson.M{"_id": id, "product_id": product, "qty": int32(1), "pid": product.Hex()}},
	}

	plan := PlanCartNormalization(entries)
	require.Len(t, plan.Rewrite, 1)
	assert.Empty(t, plan.Delete)
}

func TestExtractCartProductID(t *testing.T) {
	product := primitive.NewObjectID()

	cases := []struct {
		name string
		doc  bson.M
		ok   bool
	}{
		{"object id", bson.M{"product_id": product}, true},
		{"hex string", bson.M{"productId": product.Hex()}, true},
		{"wrapped string", bson.M{"pid": "ObjectId(\"" + product.Hex() + "\")"}, true},
		{"canonical field decides", bson.M{"product_id": product, "pid": primitive.NewObjectID()}, true},
		{"empty canonical field falls through", bson.M{"product_id": "", "pid": product}, true},
		{"null canonical field falls through", bson.M{"product_id": nil, "productId": product.Hex()}, true},
		{"unusable canonical field drops entry", bson.M{"product_id": "junk", "pid": product}, false},
		{"zero hex string", bson.M{"productId": "000000000000000000000000"}, false},
		{"zero id", bson.M{"product_id": primitive.NilObjectID}, false},
		{"number", bson.M{"product_id": 42}, false},
		{"missing", bson.M{"qty": 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractCartProductID(tc.doc)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, product, got)
			}
		})
	}
}

func TestExtractCartQty(t *testing.T) {
	assert.Equal(t, 4, ExtractCartQty(bson.M{"qty": int32(4)}))
	assert.Equal(t, 7, ExtractCartQty(bson.M{"quantity": int64(7)}))
	assert.Equal(t, 2, ExtractCartQty(bson.M{"qty": 2.9}))
	assert.Equal(t, 1, ExtractCartQty(bson.M{"qty": int32(0)}))
	assert.Equal(t, 1, ExtractCartQty(bson.M{"qty": int32(-3)}))
	assert.Equal(t, 1, ExtractCartQty(bson.M{"qty": "5"}))
	assert.Equal(t, 1, ExtractCartQty(bson.M{}))
}
