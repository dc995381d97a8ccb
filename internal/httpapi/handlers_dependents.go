package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techcare/careauth"
	"github.com/techcare/careauth/internal/dependents"
	"github.com/techcare/careauth/internal/repository"
)

func (a *api) addDependent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		a.fail(w, r, careauth.ErrTokenMissing)
		return
	}
	var req dependents.AddInput
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	d, err := a.dependents.Add(r.Context(), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Dependent user added successfully",
		"dependentUser": d,
	})
}

func (a *api) updateDependent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		a.fail(w, r, careauth.ErrTokenMissing)
		return
	}
	var req dependents.UpdateInput
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	d, err := a.dependents.Update(r.Context(), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Dependent user updated successfully",
		"dependentUser": d,
	})
}

func (a *api) deleteDependent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		a.fail(w, r, careauth.ErrTokenMissing)
		return
	}
	dependentID := chi.URLParam(r, "dependentId")

	if err := a.dependents.Delete(r.Context(), id, dependentID); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "Dependent user deleted successfully.",
		"deletedDependentId": dependentID,
	})
}

func (a *api) listDependents(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		a.fail(w, r, careauth.ErrTokenMissing)
		return
	}

	list, err := a.dependents.List(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []repository.Dependent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(list),
		"dependents": list,
	})
}
