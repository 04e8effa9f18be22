package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"matchlink/internal/service"
)

func handleSubscribe(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		targetID, err := strconv.ParseInt(chi.URLParam(r, "profileID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
			return
		}

		result, err := matchSvc.Subscribe(r.Context(), profile.ID, targetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func handleUnsubscribe(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		targetID, err := strconv.ParseInt(chi.URLParam(r, "profileID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile id"})
			return
		}

		if err := matchSvc.Unsubscribe(r.Context(), profile.ID, targetID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleReject(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		subscriptionID, err := strconv.ParseInt(chi.URLParam(r, "subscriptionID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subscription id"})
			return
		}

		sub, err := matchSvc.Reject(r.Context(), profile.ID, subscriptionID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func handleListFollowing(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		subs, err := matchSvc.ListFollowing(r.Context(), profile.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleListFollowers(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		subs, err := matchSvc.ListFollowers(r.Context(), profile.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleListMatches(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		subs, err := matchSvc.ListMatches(r.Context(), profile.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleSubscriptionStats(matchSvc *service.MatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := CurrentProfile(r)
		stats, err := matchSvc.Stats(r.Context(), profile.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
