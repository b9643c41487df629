package service

import "github.com/RafhaelH/rbac-api/internal/core/ports"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(p ports.Page) ports.Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

func newListResult[T any](items []T, total int64, p ports.Page) *ports.ListResult[T] {
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	if items == nil {
		items = []T{}
	}
	return &ports.ListResult[T]{
		Items: items,
		Total: total,
		Page:  p.Page,
		Size:  p.Size,
		Pages: pages,
	}
}
