package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohmanhakim/scrapeorch/internal/dedup"
)

func TestNormalizeReducesCompoundDataParam(t *testing.T) {
	raw := "https://maps.google.com/maps/place/Foo/@1,2,3z/data=!4m7!3m6!1s0x0:0xabc123!8m2!3d1!4d2"
	got := dedup.Normalize(raw)
	assert.Equal(t, "https://maps.google.com/maps/place/Foo?data=!4m7!3m6!1s0x0:0xabc123!", got)
}

func TestNormalizePreservesRawDataParamWithoutPlaceID(t *testing.T) {
	raw := "https://example.com/place?data=somethingelse"
	got := dedup.Normalize(raw)
	assert.Equal(t, "https://example.com/place?data=somethingelse", got)
}

func TestNormalizeNoDataParamReturnsOriginAndPath(t *testing.T) {
	raw := "https://example.com/place/foo?other=1"
	got := dedup.Normalize(raw)
	assert.Equal(t, "https://example.com/place/foo", got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := "https://maps.google.com/maps/place/Foo/@1,2,3z/data=!4m7!3m6!1s0x0:0xabc123!8m2!3d1!4d2"
	once := dedup.Normalize(raw)
	twice := dedup.Normalize(once)
	assert.Equal(t, once, twice)
}
