package services

import (
	"errors"

	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
)

// KeyValue is one (key, value) pair from the current-annotation projection.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// storageErr passes structured api errors through untouched and wraps
// anything else as a storage failure for the HTTP layer to map to a 5xx.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apierr.Storage(err)
}

// pageBounds normalizes pagination inputs. Pages are 1-based; a non-positive
// page means page 1. numPages is at least 1 even for an empty result set, and
// a page past the end simply yields no items.
func pageBounds(page, rpp int, total int64) (offset, limit, numPages int) {
	if rpp < 1 {
		rpp = 1
	}
	if page < 1 {
		page = 1
	}
	numPages = int((total + int64(rpp) - 1) / int64(rpp))
	if numPages < 1 {
		numPages = 1
	}
	return (page - 1) * rpp, rpp, numPages
}
