package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/splitkaro/server/internal/ledger"
	"github.com/splitkaro/server/internal/middleware"
	"github.com/splitkaro/server/internal/models"
)

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	// The creator is always a member.
	members := req.MemberIDs
	found := false
	for _, m := range members {
		if m == userID {
			found = true
			break
		}
	}
	if !found {
		members = append(members, userID)
	}

	group := &models.Group{
		Name:      req.Name,
		MemberIDs: members,
		CreatedBy: userID,
	}
	if err := a.store.CreateGroup(r.Context(), group); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := a.store.ListGroupsByMember(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (a *API) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	group, err := a.store.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !group.HasMember(userID) {
		writeError(w, fmt.Errorf("%w: you must be a member of this group", ledger.ErrForbidden))
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (a *API) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	group, err := a.store.GetGroup(r.Context(), groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !group.HasMember(userID) {
		writeError(w, fmt.Errorf("%w: you must be a member of this group", ledger.ErrForbidden))
		return
	}

	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		group.Name = req.Name
	}
	if req.MemberIDs != nil {
		group.MemberIDs = req.MemberIDs
	}

	if err := a.store.UpdateGroup(r.Context(), group); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (a *API) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := mux.Vars(r)["group_id"]

	if err := a.ledger.DeleteGroup(r.Context(), userID, groupID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}
