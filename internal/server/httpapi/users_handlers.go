package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Directory.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, Username: u.UserName, Role: string(u.Role), CreatedAt: u.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Directory.Remove(r.Context(), id, currentUser(r).ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			err = newAPIError(http.StatusNotFound, msgUserNotFound, err)
		}
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
