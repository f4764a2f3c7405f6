package endpoints

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/confportal/conf-portal-api/pkg/audit"
	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// maxTreeDepth bounds GET /resource/tree.
const maxTreeDepth = 3

type roleRequest struct {
	Code        string  `json:"code" validate:"required,max=64"`
	Name        string  `json:"name" validate:"required,max=128"`
	IsActive    bool    `json:"is_active"`
	Description *string `json:"description"`
	Remark      *string `json:"remark"`
}

func (q roleRequest) Model() *model.Role {
	r := &model.Role{}
	q.Apply(r)
	return r
}

func (q roleRequest) Apply(r *model.Role) {
	r.Code = strings.TrimSpace(q.Code)
	r.Name = q.Name
	r.IsActive = q.IsActive
	r.Description = q.Description
	r.Remark = q.Remark
}

type rolePermissionsRequest struct {
	PermissionIDs []uuid.UUID `json:"permission_ids" validate:"required,min=1"`
	Action        string      `json:"action" validate:"required,oneof=assign revoke"`
}

type permissionRequest struct {
	ResourceID  uuid.UUID  `json:"resource_id" validate:"required"`
	VerbID      uuid.UUID  `json:"verb_id" validate:"required"`
	Code        string     `json:"code" validate:"required,max=128"`
	DisplayName string     `json:"display_name" validate:"required,max=128"`
	ExpireDate  *time.Time `json:"expire_date"`
	IsActive    bool       `json:"is_active"`
	Description *string    `json:"description"`
}

func (q permissionRequest) Model() *model.Permission {
	p := &model.Permission{}
	q.Apply(p)
	return p
}

func (q permissionRequest) Apply(p *model.Permission) {
	p.ResourceID = q.ResourceID
	p.VerbID = q.VerbID
	p.Code = strings.TrimSpace(q.Code)
	p.DisplayName = q.DisplayName
	p.ExpireDate = q.ExpireDate
	p.IsActive = q.IsActive
	p.Description = q.Description
}

type resourceRequest struct {
	PID         *uuid.UUID         `json:"pid"`
	Code        string             `json:"code" validate:"required,max=128"`
	Key         string             `json:"key" validate:"required,max=128"`
	Name        string             `json:"name" validate:"required,max=128"`
	Icon        *string            `json:"icon"`
	Path        *string            `json:"path"`
	Type        model.ResourceType `json:"type" validate:"min=0,max=1"`
	IsVisible   bool               `json:"is_visible"`
	IsActive    bool               `json:"is_active"`
	Sequence    float64            `json:"sequence"`
	Description *string            `json:"description"`
	Remark      *string            `json:"remark"`
}

func (q resourceRequest) Model() *model.Resource {
	r := &model.Resource{}
	q.Apply(r)
	return r
}

func (q resourceRequest) Apply(r *model.Resource) {
	r.PID = q.PID
	r.Code = strings.TrimSpace(q.Code)
	r.Key = q.Key
	r.Name = q.Name
	r.Icon = q.Icon
	r.Path = q.Path
	r.Type = q.Type
	r.IsVisible = q.IsVisible
	r.IsActive = q.IsActive
	r.Sequence = q.Sequence
	r.Description = q.Description
	r.Remark = q.Remark
}

type changeParentRequest struct {
	PID *uuid.UUID `json:"pid"`
}

type changeSequenceRequest struct {
	Items []store.SequenceChange `json:"items" validate:"required,min=1,dive"`
}

type userRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" validate:"required"`
}

// ResourceNode is one node of the resource tree.
type ResourceNode struct {
	model.Resource
	Children []*ResourceNode `json:"children,omitempty"`
}

// UserDetail is a user with the ids of its roles.
type UserDetail struct {
	*model.User
	RoleIDs []uuid.UUID `json:"role_ids"`
}

type rbacHandlers struct {
	rs        responder
	roles     store.RolesStore
	resources store.ResourcesStore
	verbs     store.VerbsStore
	users     store.UsersStore
	cache     grantCache
	audit     *audit.Recorder
}

// RegisterRBACEndpoints registers the admin role, permission, resource, verb
// and user routes
func RegisterRBACEndpoints(s *server.Server, admin *mux.Router) {
	h := &rbacHandlers{
		rs:        newResponder(s),
		roles:     s.RolesStore,
		resources: s.ResourcesStore,
		verbs:     s.VerbsStore,
		users:     s.UsersStore,
		cache:     s.PermCache,
		audit:     s.Audit,
	}
	p := s.Perms

	role := admin.PathPrefix("/role").Subrouter()
	role.Handle("/"+idPattern+"/permissions", guard(p, rbac.Modify(rbac.SystemRole), h.rolePermissions)).Methods("POST")
	(&crud[model.Role, roleRequest]{code: rbac.SystemRole, store: s.RolesStore, audit: s.Audit, rs: h.rs}).routes(role, p)

	perm := admin.PathPrefix("/permission").Subrouter()
	(&crud[model.Permission, permissionRequest]{
		code:    rbac.SystemPermission,
		store:   s.PermissionsStore,
		audit:   s.Audit,
		rs:      h.rs,
		filters: map[string]string{"resource_id": "resource_id", "verb_id": "verb_id"},
	}).routes(perm, p)

	res := admin.PathPrefix("/resource").Subrouter()
	res.Handle("/tree", guard(p, rbac.Read(rbac.SystemResource), h.tree)).Methods("GET")
	res.Handle("/menus", p.Require(rbac.Requirement{})(http.HandlerFunc(h.menus))).Methods("GET")
	res.Handle("/change_parent/"+idPattern, guard(p, rbac.Modify(rbac.SystemResource), h.changeParent)).Methods("PUT")
	res.Handle("/change_sequence", guard(p, rbac.Modify(rbac.SystemResource), h.changeSequence)).Methods("POST")
	resources := &crud[model.Resource, resourceRequest]{code: rbac.SystemResource, store: s.ResourcesStore, audit: s.Audit, rs: h.rs}
	res.Handle("/restore/"+idPattern, guard(p, rbac.Delete(rbac.SystemResource), restoreOne(resources))).Methods("PUT")
	resources.routes(res, p)

	admin.Handle("/verb/list", guard(p, rbac.Read(rbac.SystemPermission), h.listVerbs)).Methods("GET")

	user := admin.PathPrefix("/user").Subrouter()
	users := &crud[model.User, noWrite[model.User]]{code: rbac.SystemUser, store: s.UsersStore, audit: s.Audit, rs: h.rs}
	user.Handle("/"+idPattern+"/roles", guard(p, rbac.Modify(rbac.SystemUser), h.setUserRoles)).Methods("PUT")
	user.Handle("/"+idPattern, guard(p, rbac.Read(rbac.SystemUser), h.getUser)).Methods("GET")
	users.routes(user, p, opPages)
}

// noWrite is the request type of resources without create or update routes.
type noWrite[T any] struct{}

func (noWrite[T]) Model() *T { return new(T) }
func (noWrite[T]) Apply(*T)  {}

// restoreOne serves PUT /restore/{id} for resources that restore singly.
func restoreOne[T any, R writeRequest[T]](c *crud[T, R]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			c.rs.error(w, r, err)
			return
		}
		n, err := c.store.Restore(r.Context(), []uuid.UUID{id})
		if err != nil {
			c.rs.error(w, r, err)
			return
		}
		if n == 0 {
			c.rs.error(w, r, errs.NewNotFoundError("Nothing to restore", false, nil))
			return
		}
		c.audit.Record(r.Context(), actor(r), audit.Restored(c.code, id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *rbacHandlers) rolePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req rolePermissionsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if _, err := h.roles.Get(r.Context(), id); err != nil {
		h.rs.error(w, r, err)
		return
	}
	before, err := h.roles.PermissionIDs(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if req.Action == "assign" {
		err = h.roles.AssignPermissions(r.Context(), id, req.PermissionIDs)
	} else {
		err = h.roles.RevokePermissions(r.Context(), id, req.PermissionIDs)
	}
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	after, err := h.roles.PermissionIDs(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.clearRoleHolders(r, id)
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.SystemRole, id,
		map[string]any{"permission_ids": before},
		map[string]any{"permission_ids": after}))
	w.WriteHeader(http.StatusNoContent)
}

// clearRoleHolders drops the cached grants of every user holding the role.
// Failures are logged; stale entries still expire with the cache TTL.
func (h *rbacHandlers) clearRoleHolders(r *http.Request, roleID uuid.UUID) {
	userIDs, err := h.roles.UserIDs(r.Context(), roleID)
	if err != nil {
		h.rs.logger.Warn().Err(err).Str("role_id", roleID.String()).Msg("failed to list role holders")
		return
	}
	for _, uid := range userIDs {
		if err := h.cache.Clear(r.Context(), uid); err != nil {
			h.rs.logger.Warn().Err(err).Str("user_id", uid.String()).Msg("failed to clear permission cache")
		}
	}
}

// BuildTree nests resources under their parents, at most depth levels deep.
// Siblings keep the input order.
func BuildTree(resources []model.Resource, depth int) []*ResourceNode {
	nodes := make(map[uuid.UUID]*ResourceNode, len(resources))
	for i := range resources {
		nodes[resources[i].ID] = &ResourceNode{Resource: resources[i]}
	}
	children := map[uuid.UUID][]*ResourceNode{}
	var roots []*ResourceNode
	for i := range resources {
		n := nodes[resources[i].ID]
		pid := resources[i].PID
		if pid == nil || nodes[*pid] == nil {
			roots = append(roots, n)
			continue
		}
		children[*pid] = append(children[*pid], n)
	}

	var attach func(n *ResourceNode, level int)
	attach = func(n *ResourceNode, level int) {
		if level >= depth {
			return
		}
		n.Children = children[n.ID]
		for _, c := range n.Children {
			attach(c, level+1)
		}
	}
	for _, n := range roots {
		attach(n, 1)
	}
	if roots == nil {
		roots = []*ResourceNode{}
	}
	return roots
}

func sortBySequence(rs []model.Resource) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Sequence < rs[j].Sequence })
}

func (h *rbacHandlers) tree(w http.ResponseWriter, r *http.Request) {
	items, err := h.resources.List(r.Context(), false)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	sortBySequence(items)
	respondWithJSON(w, http.StatusOK, BuildTree(items, maxTreeDepth))
}

func (h *rbacHandlers) menus(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var codes []string
	if !id.IsSuperuser {
		codes = append([]string{}, id.Permissions...)
	}
	items, err := h.resources.Menus(r.Context(), codes)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	sortBySequence(items)
	respondWithJSON(w, http.StatusOK, BuildTree(items, maxTreeDepth))
}

func (h *rbacHandlers) changeParent(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req changeParentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if req.PID != nil && *req.PID == id {
		h.rs.error(w, r, errs.NewBadRequestError("A resource cannot be its own parent", true, nil, nil, nil))
		return
	}
	old, err := h.resources.Get(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.resources.ChangeParent(r.Context(), id, req.PID); err != nil {
		h.rs.error(w, r, err)
		return
	}
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.SystemResource, id,
		map[string]any{"pid": old.PID}, map[string]any{"pid": req.PID}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *rbacHandlers) changeSequence(w http.ResponseWriter, r *http.Request) {
	var req changeSequenceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.resources.ChangeSequence(r.Context(), req.Items); err != nil {
		h.rs.error(w, r, err)
		return
	}
	for _, c := range req.Items {
		h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.SystemResource, c.ID,
			nil, map[string]any{"sequence": c.Sequence}))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *rbacHandlers) listVerbs(w http.ResponseWriter, r *http.Request) {
	verbs, err := h.verbs.List(r.Context())
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if verbs == nil {
		verbs = []model.Verb{}
	}
	respondWithJSON(w, http.StatusOK, verbs)
}

func (h *rbacHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	roleIDs, err := h.users.RoleIDs(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if roleIDs == nil {
		roleIDs = []uuid.UUID{}
	}
	respondWithJSON(w, http.StatusOK, UserDetail{User: user, RoleIDs: roleIDs})
}

func (h *rbacHandlers) setUserRoles(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	var req userRolesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if _, err := h.users.Get(r.Context(), id); err != nil {
		h.rs.error(w, r, err)
		return
	}
	before, err := h.users.RoleIDs(r.Context(), id)
	if err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.users.SetRoles(r.Context(), id, req.RoleIDs); err != nil {
		h.rs.error(w, r, err)
		return
	}
	if err := h.cache.Clear(r.Context(), id); err != nil {
		h.rs.logger.Warn().Err(err).Str("user_id", id.String()).Msg("failed to clear permission cache")
	}
	h.audit.Record(r.Context(), actor(r), audit.Updated(rbac.SystemUser, id,
		map[string]any{"role_ids": before}, map[string]any{"role_ids": req.RoleIDs}))
	w.WriteHeader(http.StatusNoContent)
}
