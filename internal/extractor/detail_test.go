package extractor_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
	"github.com/rohmanhakim/scrapeorch/internal/metadata"
)

const sampleDetailHTML = `
<html><body>
  <h1 class="DUwDvf">Warung Makan Sedap</h1>
  <button data-item-id="phone">(021)   555 1234</button>
  <a data-item-id="authority" href="https://sedap.example.com">site</a>
  <button data-item-id="address">Jl. Sudirman No. 1, Jakarta</button>
  <div class="F7nice">
    <span aria-hidden="true">4,5</span>
    <span aria-label="1.2K reviews">1.2K reviews</span>
  </div>
  <button class="DkEaL">Restaurant</button>
</body></html>`

func TestParseDocumentBuildsRecord(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleDetailHTML))
	require.NoError(t, err)

	parser := extractor.NewDetailParser(metadata.NewRecorder("job-1"))
	record, classifiedErr := parser.ParseDocument(doc, extractor.DefaultGoogleMapsSelectors, extractor.DetailContext{
		SearchTerm: "restaurant", SearchType: "Google Maps", SearchLocation: "Jakarta", URL: "https://maps.example/1",
	})

	require.Nil(t, classifiedErr)
	require.NotNil(t, record)
	assert.Equal(t, "Warung Makan Sedap", record.Name)
	assert.Equal(t, "(021) 555 1234", record.Phone)
	assert.Equal(t, "https://sedap.example.com", record.Website)
	assert.Equal(t, "Jl. Sudirman No. 1, Jakarta", record.Address)
	require.NotNil(t, record.Rating)
	assert.InDelta(t, 4.5, *record.Rating, 0.01)
	assert.Equal(t, "Restaurant", record.Category)
	assert.Equal(t, "https://maps.example/1", record.URL)
}

func TestParseDocumentDropsRecordWithoutName(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)

	parser := extractor.NewDetailParser(metadata.NewRecorder("job-1"))
	record, classifiedErr := parser.ParseDocument(doc, extractor.DefaultGoogleMapsSelectors, extractor.DetailContext{})

	assert.Nil(t, classifiedErr)
	assert.Nil(t, record)
}

func TestParseRawDetailBuildsRecord(t *testing.T) {
	raw := extractor.RawDetail{
		Fields: map[string]string{
			"name":         "Toko Kue Manis",
			"phone":        "0812  345 678",
			"website":      "https://manis.example.com",
			"category":     "Bakery",
			"rating":       "4.8",
			"rating_count": "(512)",
		},
		Lines: map[string][]string{
			"address": {"Jl. Gatot Subroto 10", "", "Bandung"},
		},
	}

	parser := extractor.NewDetailParser(metadata.NewRecorder("job-1"))
	record, classifiedErr := parser.ParseRawDetail(raw, extractor.DetailContext{SearchTerm: "bakery"})

	require.Nil(t, classifiedErr)
	require.NotNil(t, record)
	assert.Equal(t, "Toko Kue Manis", record.Name)
	assert.Equal(t, "Jl. Gatot Subroto 10, Bandung", record.Address)
	assert.Equal(t, "512", record.RatingCount)
	require.NotNil(t, record.Rating)
	assert.InDelta(t, 4.8, *record.Rating, 0.01)
}

func TestParseRawDetailDropsRecordWithoutName(t *testing.T) {
	parser := extractor.NewDetailParser(metadata.NewRecorder("job-1"))
	record, classifiedErr := parser.ParseRawDetail(extractor.RawDetail{Fields: map[string]string{}}, extractor.DetailContext{})

	assert.Nil(t, classifiedErr)
	assert.Nil(t, record)
}
