package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]string{"status": "ok"}
	if a.Config != nil {
		payload["env"] = a.Config.AppEnv
	}
	a.json(w, http.StatusOK, payload)
}
