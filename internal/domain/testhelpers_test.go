package domain

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

const testLocalityID = "villa_test"

func testLocality() LocalityContext {
	return LocalityContext{
		ID:                testLocalityID,
		DisplayName:       "Villa Test",
		RegionName:        "Córdoba, Argentina",
		Country:           "argentina",
		Province:          "cordoba",
		HighlightedEvent:  "Peña folclórica en el club social, 21 h.",
		OnDutyServiceText: "**Farmacia de turno:** Farmacia Norte, Belgrano 12. [Ver en el mapa](https://maps.example/?q=Belgrano+12)",
		Links: []Link{
			{Label: "Municipalidad", URL: "https://muni.example"},
			{Label: "Emergencias", URL: "tel:911"},
		},
	}
}

func cordoba(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadCivilLocation(DefaultCivilTimezone)
	require.NoError(t, err)
	return loc
}

// reportJSON renders an upstream-style response with the given category
// names, each with placeholder content.
func reportJSON(t *testing.T, lastUpdated string, names ...string) string {
	t.Helper()
	cats := make([]map[string]string, 0, len(names))
	for _, n := range names {
		cats = append(cats, map[string]string{"name": n, "content": "Contenido de " + n})
	}
	data, err := json.Marshal(map[string]any{
		"title":       "Informe diario de Villa Test",
		"lastUpdated": lastUpdated,
		"categories":  cats,
	})
	require.NoError(t, err)
	return string(data)
}

func fenced(body string) string {
	return "```json\n" + body + "\n```"
}
