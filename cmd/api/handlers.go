package main

import (
	"context"
	"net/http"
	"time"
)

func (s *server) handleHealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "available"

		if s.db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := s.db.PingContext(ctx); err != nil {
				s.errorLog(r, err)
				status = "degraded"
			}
		}

		env := envelope{
			"status": status,
			"system_info": map[string]string{
				"environment": s.env,
				"version":     version,
				"blob_driver": s.blobs.Driver(),
			},
		}

		err := s.writeJSON(w, http.StatusOK, env, nil)
		if err != nil {
			s.serverErrorResponse(w, r, err)
		}
	}
}
