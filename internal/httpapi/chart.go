package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcodec"
)

func (rt *Router) handleChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if id == "test" {
		info, ch := syntheticTestChart()
		payload, err := chartcodec.Encode(info, ch)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode synthetic chart")
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
		return
	}

	result, err := rt.charts.Get(r.Context(), id)
	if err != nil {
		rt.log.Warn().Err(err).Str("chart_id", id).Msg("chart fetch failed")
		writeError(w, http.StatusBadGateway, "chart unavailable")
		return
	}

	f, err := os.Open(result.BinPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cached chart missing on disk")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if result.Hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	http.ServeContent(w, r, id+".bin", time.Time{}, f)
}
