package service

import (
	"math"
	"net/http"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// PageRequest is a 1-based page number and size already bounded by the caller.
type PageRequest struct {
	Number int
	Size   int
}

// normalized fills defaults and rejects page numbers whose offset cannot be represented.
func (p PageRequest) normalized() (PageRequest, error) {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return p, errInvalidPage
	}
	return p, nil
}

func (p PageRequest) limit() int  { return p.Size }
func (p PageRequest) offset() int { return (p.Number - 1) * p.Size }

// Page is one slice of a paginated result.
type Page[T any] struct {
	Items  []T
	Total  int
	Number int
	Size   int
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Number*p.Size < p.Total }

// HasPrevious reports whether an earlier page exists.
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

var errInvalidPage = apperrors.NewDomainError("NOT_FOUND", "Invalid page.", http.StatusNotFound, nil)

// checkPage rejects pages past the end. The first page is always valid.
func checkPage(req PageRequest, total int) error {
	if req.Number > 1 && req.offset() >= total {
		return errInvalidPage
	}
	return nil
}
