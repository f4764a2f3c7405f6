package endpoints

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server/middleware"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// writeRequest is the body of create and update calls for T.
type writeRequest[T any] interface {
	// Model builds a new record.
	Model() *T
	// Apply copies the request onto an existing record.
	Apply(item *T)
}

type deleteRequest struct {
	Reason    string `json:"reason" validate:"required_unless=Permanent true"`
	Permanent bool   `json:"permanent"`
}

type restoreRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type crudOp int

const (
	opPages crudOp = iota
	opList
	opGet
	opCreate
	opUpdate
	opDelete
	opRestore
)

var allOps = []crudOp{opPages, opList, opGet, opCreate, opUpdate, opDelete, opRestore}

// crud serves the standard admin lifecycle of one resource.
type crud[T any, R writeRequest[T]] struct {
	// code is the RBAC resource code, also used as the operation code.
	code  string
	store store.CRUDStore[T]
	audit *audit.Recorder
	rs    responder
	// filters maps query parameters to the columns they filter pages on.
	filters map[string]string
}

func primaryKey(item any) uuid.UUID {
	if rec, ok := item.(model.Record); ok {
		return rec.PrimaryKey()
	}
	return uuid.Nil
}

// routes registers ops on r. Routes with literal segments go first so they
// win over {id}.
func (c *crud[T, R]) routes(r *mux.Router, p *middleware.Permissions, ops ...crudOp) {
	if len(ops) == 0 {
		ops = allOps
	}
	for _, op := range ops {
		switch op {
		case opPages:
			r.Handle("/pages", guard(p, rbac.Read(c.code), c.pages)).Methods("GET")
		case opList:
			r.Handle("/list", guard(p, rbac.Read(c.code), c.list)).Methods("GET")
		case opRestore:
			r.Handle("/restore", guard(p, rbac.Delete(c.code), c.restore)).Methods("PUT")
		}
	}
	for _, op := range ops {
		switch op {
		case opGet:
			r.Handle("/"+idPattern, guard(p, rbac.Read(c.code), c.get)).Methods("GET")
		case opCreate:
			r.Handle("", guard(p, rbac.Create(c.code), c.create)).Methods("POST")
		case opUpdate:
			r.Handle("/"+idPattern, guard(p, rbac.Modify(c.code), c.update)).Methods("PUT")
		case opDelete:
			r.Handle("/"+idPattern, guard(p, rbac.Delete(c.code), c.delete)).Methods("DELETE")
		}
	}
}

func (c *crud[T, R]) pages(w http.ResponseWriter, r *http.Request) {
	q, err := pageQuery(r)
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	for param, column := range c.filters {
		if q, err = withFilter(q, r, param, column); err != nil {
			c.rs.error(w, r, err)
			return
		}
	}
	page, err := c.store.Pages(r.Context(), q)
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (c *crud[T, R]) list(w http.ResponseWriter, r *http.Request) {
	items, err := c.store.List(r.Context(), queryBool(r, "deleted"))
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (c *crud[T, R]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	item, err := c.store.Get(r.Context(), id)
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (c *crud[T, R]) create(w http.ResponseWriter, r *http.Request) {
	var req R
	if err := decodeJSON(r, &req); err != nil {
		c.rs.error(w, r, err)
		return
	}
	item := req.Model()
	if err := c.store.Create(r.Context(), item); err != nil {
		c.rs.error(w, r, err)
		return
	}
	id := primaryKey(item)
	c.audit.Record(r.Context(), actor(r), audit.Created(c.code, id, item))
	respondWithJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (c *crud[T, R]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	var req R
	if err := decodeJSON(r, &req); err != nil {
		c.rs.error(w, r, err)
		return
	}
	item, err := c.store.Get(r.Context(), id)
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	old := *item
	req.Apply(item)
	if err := c.store.Update(r.Context(), item); err != nil {
		c.rs.error(w, r, err)
		return
	}
	c.audit.Record(r.Context(), actor(r), audit.Updated(c.code, id, &old, item))
	w.WriteHeader(http.StatusNoContent)
}

func (c *crud[T, R]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		c.rs.error(w, r, err)
		return
	}
	// a permanent delete also purges records already in the recycle bin
	lookup := c.store.Get
	if req.Permanent {
		lookup = c.store.GetAny
	}
	item, err := lookup(r.Context(), id)
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	if req.Permanent {
		err = c.store.Delete(r.Context(), id)
	} else {
		err = c.store.SoftDelete(r.Context(), id, req.Reason)
	}
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	c.audit.Record(r.Context(), actor(r), audit.Deleted(c.code, id, item, req.Permanent))
	w.WriteHeader(http.StatusNoContent)
}

func (c *crud[T, R]) restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeJSON(r, &req); err != nil {
		c.rs.error(w, r, err)
		return
	}
	n, err := c.store.Restore(r.Context(), req.IDs)
	if err != nil {
		c.rs.error(w, r, err)
		return
	}
	if n == 0 {
		c.rs.error(w, r, errs.NewNotFoundError("Nothing to restore", false, nil))
		return
	}
	for _, id := range req.IDs {
		c.audit.Record(r.Context(), actor(r), audit.Restored(c.code, id))
	}
	w.WriteHeader(http.StatusNoContent)
}
