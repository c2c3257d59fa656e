package handler

import (
	"context"
	"net/http"

	"github.com/albapepper/scoracle-gamelogs/internal/cache"
)

// SchemaEntry is the JSON view of one registry entry.
type SchemaEntry struct {
	Category string `json:"category"`
	Column   string `json:"column"`
	Name     string `json:"name"`
	Tip      string `json:"tip,omitempty"`
}

// SchemaList is the /schema response.
type SchemaList struct {
	Count   int           `json:"count"`
	Entries []SchemaEntry `json:"entries"`
}

// GetSchema returns the canonical stat names in first-assignment order.
// Later log lines for the same header win, mirroring append semantics.
// @Summary Canonical stat names
// @Tags schema
// @Produce json
// @Success 200 {object} SchemaList
// @Router /schema [get]
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "schema", cache.TTLSchema, func(ctx context.Context) (interface{}, error) {
		entries, err := h.schemas.Load(ctx)
		if err != nil {
			return nil, err
		}

		index := make(map[[2]string]int, len(entries))
		out := make([]SchemaEntry, 0, len(entries))
		for _, e := range entries {
			v := SchemaEntry{Category: e.Category, Column: e.Column, Name: e.Name, Tip: e.Tip}
			k := [2]string{e.Category, e.Column}
			if i, ok := index[k]; ok {
				out[i] = v
				continue
			}
			index[k] = len(out)
			out = append(out, v)
		}
		return SchemaList{Count: len(out), Entries: out}, nil
	})
}
