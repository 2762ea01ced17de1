package vectorstore

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
)

// qdrantDistance and normalizeScore are unexported methods on *qdrantBackend;
// a zero-value backend with only the metric field set is enough to exercise
// them without dialing a live Qdrant instance.
func TestQdrantBackend_DistanceMatchesConfiguredMetric(t *testing.T) {
	cases := []struct {
		metric Metric
		want   qdrant.Distance
	}{
		{MetricInnerProduct, qdrant.Distance_Dot},
		{MetricL2, qdrant.Distance_Euclid},
		{MetricCosine, qdrant.Distance_Cosine},
		{"", qdrant.Distance_Cosine},
	}
	for _, c := range cases {
		backend := &qdrantBackend{metric: c.metric}
		assert.Equal(t, c.want, backend.qdrantDistance())
	}
}

func TestQdrantBackend_NormalizeScoreUsesL2OnlyForL2Metric(t *testing.T) {
	l2 := &qdrantBackend{metric: MetricL2}
	assert.InDelta(t, NormalizeL2(2.0), l2.normalizeScore(2.0), 0.0001)

	cosine := &qdrantBackend{metric: MetricCosine}
	assert.InDelta(t, ClampScore(0.5), cosine.normalizeScore(0.5), 0.0001)

	ip := &qdrantBackend{metric: MetricInnerProduct}
	assert.InDelta(t, ClampScore(1.5), ip.normalizeScore(1.5), 0.0001, "ClampScore must clamp above 1")
}

func TestPortFromParams_ParsesConfiguredPort(t *testing.T) {
	assert.Equal(t, 1234, portFromParams(map[string]string{"port": "1234"}))
}

func TestPortFromParams_DefaultsWhenAbsentOrInvalid(t *testing.T) {
	assert.Equal(t, 6334, portFromParams(map[string]string{}))
	assert.Equal(t, 6334, portFromParams(map[string]string{"port": "not-a-number"}))
}

func TestConvertValue_HandlesEachScalarKind(t *testing.T) {
	assert.Equal(t, 3.5, convertValue(&qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: 3.5}}))
	assert.Equal(t, int64(7), convertValue(&qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: 7}}))
	assert.Equal(t, "docs", convertValue(&qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: "docs"}}))
	assert.Equal(t, true, convertValue(&qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: true}}))
	assert.Nil(t, convertValue(nil))
}

func TestConvertValue_HandlesNestedStructAndList(t *testing.T) {
	structVal := &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{
		Fields: map[string]*qdrant.Value{
			"nested": {Kind: &qdrant.Value_StringValue{StringValue: "v"}},
		},
	}}}
	assert.Equal(t, map[string]interface{}{"nested": "v"}, convertValue(structVal))

	listVal := &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{
		Values: []*qdrant.Value{
			{Kind: &qdrant.Value_IntegerValue{IntegerValue: 1}},
			{Kind: &qdrant.Value_IntegerValue{IntegerValue: 2}},
		},
	}}}
	assert.Equal(t, []interface{}{int64(1), int64(2)}, convertValue(listVal))
}

func TestConvertPayload_ConvertsEveryFieldAndNilPassesThrough(t *testing.T) {
	payload := map[string]*qdrant.Value{
		"category": {Kind: &qdrant.Value_StringValue{StringValue: "docs"}},
		"score":    {Kind: &qdrant.Value_DoubleValue{DoubleValue: 0.9}},
	}
	got := convertPayload(payload)
	assert.Equal(t, "docs", got["category"])
	assert.Equal(t, 0.9, got["score"])

	assert.Nil(t, convertPayload(nil))
}
