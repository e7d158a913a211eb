package server

import (
	"encoding/json"
	"net/http"
)

// Messages returned to the frontend, which displays them as-is.
const (
	msgHome                = "MoodFit API je aktivan"
	msgPing                = "Server je dostupan"
	msgMissingCredentials  = "Spotify kredencijali nisu postavljeni"
	msgMissingCode         = "Missing authorization code"
	msgTokenFailed         = "Failed to get access token"
	msgMissingAuthToken    = "Nedostaje autorizacioni token"
	msgInvalidToken        = "Nevažeći token"
	msgProfileFailed       = "Nije uspelo dohvatanje korisničkog profila"
	msgTopTracksFailed     = "Nije uspelo dohvatanje top pesama"
	msgTopArtistsFailed    = "Nije uspelo dohvatanje top izvođača"
	msgPlaylistsFailed     = "Nije uspelo dohvatanje plejlisti"
	msgTimelineUnavailable = "Nije moguće dohvatiti podatke ni za jedan vremenski period"
	msgInternalError       = "Interna greška servera"
	msgMethodNotAllowed    = "Method not allowed"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeRaw passes an upstream JSON body through unchanged.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
