package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-gamelogs/internal/api/respond"
	"github.com/albapepper/scoracle-gamelogs/internal/cache"
	"github.com/albapepper/scoracle-gamelogs/internal/provider"
	"github.com/albapepper/scoracle-gamelogs/internal/store"
)

// PlayerList is the /players response.
type PlayerList struct {
	Count   int             `json:"count"`
	Players []store.Summary `json:"players"`
}

// PlayerYear is the /players/{id}/years/{year} response.
type PlayerYear struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Year  string                `json:"year"`
	Games []provider.GameRecord `json:"games"`
}

// ListPlayers returns a summary of every persisted player.
// @Summary List ingested players
// @Tags players
// @Produce json
// @Success 200 {object} PlayerList
// @Router /players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "players", cache.TTLListing, func(ctx context.Context) (interface{}, error) {
		players, err := h.players.List(ctx)
		if err != nil {
			return nil, err
		}
		return PlayerList{Count: len(players), Players: players}, nil
	})
}

// GetPlayer returns one player's full record.
// @Summary Full game log history of one player
// @Tags players
// @Produce json
// @Param playerID path string true "Player id"
// @Success 200 {object} provider.PlayerRecord
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{playerID} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playerID")
	h.serveCached(w, r, "player:"+id, cache.TTLPlayer, func(ctx context.Context) (interface{}, error) {
		return h.players.Get(ctx, id)
	})
}

// GetPlayerYear returns one season of a player's games.
// @Summary One season of a player's games
// @Tags players
// @Produce json
// @Param playerID path string true "Player id"
// @Param year path string true "Season (four digits)"
// @Success 200 {object} PlayerYear
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{playerID}/years/{year} [get]
func (h *Handler) GetPlayerYear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playerID")
	year := chi.URLParam(r, "year")
	if !provider.IsDigits(year) || len(year) != 4 {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidYear, "Year must be a four digit season", year)
		return
	}

	h.serveCached(w, r, fmt.Sprintf("player:%s:%s", id, year), cache.TTLPlayer, func(ctx context.Context) (interface{}, error) {
		rec, err := h.players.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		yl, ok := rec.Years[year]
		if !ok {
			return nil, errNotFound{msg: fmt.Sprintf("No games for %s in %s", id, year)}
		}
		return PlayerYear{ID: rec.ID, Name: rec.Name, Year: year, Games: yl.Games}, nil
	})
}
