package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Resource is a typed view of one backend collection following the
// conventional shape:
//
//	GET    /api/<resource>/
//	POST   /api/<resource>/
//	PUT    /api/<resource>/<id>
//	DELETE /api/<resource>/<id>
//	PUT    /api/<resource>/<id>/approve
//	PUT    /api/<resource>/<id>/reject
//
// Options move the list or the approval gate onto other prefixes.
type Resource[T any] struct {
	client *Client
	name   string
	base   string
	paths  resourcePaths
}

type resourcePaths struct {
	list string
	gate string
}

// ResourceOption adjusts the paths of a Resource.
type ResourceOption func(*resourcePaths)

// ListFrom reads the collection from path instead of the base path.
func ListFrom(path string) ResourceOption {
	return func(p *resourcePaths) { p.list = path }
}

// GateAt sends approve and reject to <base>/<id>/approve|reject.
func GateAt(base string) ResourceOption {
	return func(p *resourcePaths) { p.gate = base }
}

// NewResource binds a collection path such as "/api/equipment".
func NewResource[T any](client *Client, name, base string, opts ...ResourceOption) *Resource[T] {
	paths := resourcePaths{list: base + "/", gate: base}
	for _, opt := range opts {
		opt(&paths)
	}
	return &Resource[T]{client: client, name: name, base: base, paths: paths}
}

// Name is the resource label used in metrics and notifications.
func (r *Resource[T]) Name() string { return r.name }

// List fetches the full collection.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	if err := r.client.do(ctx, call{resource: r.name, method: http.MethodGet, path: r.paths.list, out: &items}); err != nil {
		return nil, err
	}
	return items, nil
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, payload any) error {
	return r.client.do(ctx, call{resource: r.name, method: http.MethodPost, path: r.base + "/", body: payload})
}

// Update replaces fields of record id.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) error {
	return r.client.do(ctx, call{resource: r.name, method: http.MethodPut, path: r.item(id), body: payload})
}

// Delete removes record id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, call{resource: r.name, method: http.MethodDelete, path: r.item(id)})
}

// Approve moves record id through the approval gate.
func (r *Resource[T]) Approve(ctx context.Context, id string) error {
	return r.client.do(ctx, call{resource: r.name, method: http.MethodPut, path: r.paths.gate + "/" + url.PathEscape(id) + "/approve"})
}

// Reject declines record id.
func (r *Resource[T]) Reject(ctx context.Context, id string) error {
	return r.client.do(ctx, call{resource: r.name, method: http.MethodPut, path: r.paths.gate + "/" + url.PathEscape(id) + "/reject"})
}

func (r *Resource[T]) item(id string) string {
	return r.base + "/" + url.PathEscape(id)
}
