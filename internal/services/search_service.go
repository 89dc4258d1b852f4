package services

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	"github.com/riplabs/annotdb-backend/internal/expr"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

// SearchResult carries one page of matching account addresses. Accounts and
// NumPages are left empty when only totals were requested.
type SearchResult struct {
	NumMatches int      `json:"num_matches"`
	NumPages   int      `json:"num_pages,omitempty"`
	Accounts   []string `json:"accounts,omitempty"`
}

// Criterion is one exact-match (key,value) pair for the legacy search path.
type Criterion struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SearchService interface {
	// Search runs an expression query against the current-annotation
	// projection. A malformed query surfaces as an invalid-query error.
	Search(ctx context.Context, query string, page, rpp int, totalsOnly bool) (*SearchResult, error)
	// SearchCriteria is the legacy search: accounts that ever carried every
	// given (key,value) pair anywhere in history, re-validated against the
	// most recent non-hidden value so stale matches drop out.
	SearchCriteria(ctx context.Context, criteria []Criterion) ([]string, error)
	// WriteResultsCSV streams every page of an expression search as CSV.
	WriteResultsCSV(ctx context.Context, query string, w io.Writer) error
}

type searchService struct {
	db  *gorm.DB
	log *logger.Logger

	accounts    repos.AccountRepo
	keys        repos.AnnotationKeyRepo
	annotations repos.AnnotationRepo
	current     repos.CurrentAnnotationRepo
}

func NewSearchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	accounts repos.AccountRepo,
	keys repos.AnnotationKeyRepo,
	annotations repos.AnnotationRepo,
	current repos.CurrentAnnotationRepo,
) SearchService {
	return &searchService{
		db:          db,
		log:         baseLog.With("service", "SearchService"),
		accounts:    accounts,
		keys:        keys,
		annotations: annotations,
		current:     current,
	}
}

// accountSet is the Predicate the search resolver produces: a set of account
// IDs plus the universe (every account with any current annotation) that a
// negation complements against.
type accountSet struct {
	ids      map[uint]struct{}
	universe map[uint]struct{}
}

func (s accountSet) And(other expr.Predicate) expr.Predicate {
	o := other.(accountSet)
	out := accountSet{ids: make(map[uint]struct{}), universe: s.universe}
	for id := range s.ids {
		if _, ok := o.ids[id]; ok {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

func (s accountSet) Or(other expr.Predicate) expr.Predicate {
	o := other.(accountSet)
	out := accountSet{ids: make(map[uint]struct{}), universe: s.universe}
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	for id := range o.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

func (s accountSet) Not() expr.Predicate {
	out := accountSet{ids: make(map[uint]struct{}), universe: s.universe}
	for id := range s.universe {
		if _, ok := s.ids[id]; !ok {
			out.ids[id] = struct{}{}
		}
	}
	return out
}

func (s *searchService) Search(ctx context.Context, query string, page, rpp int, totalsOnly bool) (*SearchResult, error) {
	expression, err := expr.Parse(query)
	if err != nil {
		var syntaxErr *expr.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, apierr.Syntax("syntax error in search query")
		}
		return nil, storageErr(err)
	}

	universeIDs, err := s.current.AllAccountIDs(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	universe := make(map[uint]struct{}, len(universeIDs))
	for _, id := range universeIDs {
		universe[id] = struct{}{}
	}

	resolve := func(variable, operator, value string) (expr.Predicate, error) {
		ids, err := s.current.AccountIDsMatching(ctx, nil, variable, operator, value)
		if err != nil {
			return nil, err
		}
		set := accountSet{ids: make(map[uint]struct{}, len(ids)), universe: universe}
		for _, id := range ids {
			set.ids[id] = struct{}{}
		}
		return set, nil
	}

	predicate, err := expr.Evaluate(expression, resolve)
	if err != nil {
		return nil, storageErr(err)
	}
	matched := predicate.(accountSet)

	if totalsOnly {
		return &SearchResult{NumMatches: len(matched.ids)}, nil
	}

	addresses, err := s.resolveAddresses(ctx, matched.ids)
	if err != nil {
		return nil, storageErr(err)
	}

	offset, limit, numPages := pageBounds(page, rpp, int64(len(addresses)))
	pageAccounts := []string{}
	if offset < len(addresses) {
		end := offset + limit
		if end > len(addresses) {
			end = len(addresses)
		}
		pageAccounts = addresses[offset:end]
	}

	return &SearchResult{
		NumMatches: len(addresses),
		NumPages:   numPages,
		Accounts:   pageAccounts,
	}, nil
}

func (s *searchService) SearchCriteria(ctx context.Context, criteria []Criterion) ([]string, error) {
	if len(criteria) == 0 {
		return nil, apierr.Validation("no search criteria supplied")
	}

	// Phase one: candidates that ever carried each pair anywhere in history.
	var candidates map[uint]struct{}
	for _, criterion := range criteria {
		if criterion.Key == "" || criterion.Value == "" {
			return nil, apierr.Validation("search criteria must include both a key and a value")
		}
		ids, err := s.annotations.AccountIDsEverWithKeyValue(ctx, nil, criterion.Key, criterion.Value)
		if err != nil {
			return nil, storageErr(err)
		}
		set := make(map[uint]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		if candidates == nil {
			candidates = set
			continue
		}
		for id := range candidates {
			if _, ok := set[id]; !ok {
				delete(candidates, id)
			}
		}
	}

	// Phase two: a historical match may have been overwritten or hidden
	// since, so keep only accounts whose current value still matches.
	matched := make(map[uint]struct{})
	for id := range candidates {
		ok := true
		for _, criterion := range criteria {
			current, err := s.currentValue(ctx, id, criterion.Key)
			if err != nil {
				return nil, storageErr(err)
			}
			if current == nil || !strings.EqualFold(*current, criterion.Value) {
				ok = false
				break
			}
		}
		if ok {
			matched[id] = struct{}{}
		}
	}

	return s.resolveAddresses(ctx, matched)
}

// currentValue computes the most recent non-hidden value for (account,key)
// from history, or nil when nothing visible remains.
func (s *searchService) currentValue(ctx context.Context, accountID uint, key string) (*string, error) {
	keyRow, err := s.keys.GetByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}
	if keyRow == nil {
		return nil, nil
	}

	rows, err := s.annotations.ListVisibleByAccountKey(ctx, nil, accountID, keyRow.ID)
	if err != nil {
		return nil, err
	}

	var latest *string
	var latestRow *int
	for i, row := range rows {
		if latestRow == nil ||
			row.Batch.Timestamp.After(rows[*latestRow].Batch.Timestamp) ||
			(row.Batch.Timestamp.Equal(rows[*latestRow].Batch.Timestamp) && row.BatchID > rows[*latestRow].BatchID) {
			idx := i
			latestRow = &idx
			latest = &row.Value.Value
		}
	}
	return latest, nil
}

func (s *searchService) resolveAddresses(ctx context.Context, ids map[uint]struct{}) ([]string, error) {
	list := make([]uint, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	accounts, err := s.accounts.GetByIDs(ctx, nil, list)
	if err != nil {
		return nil, err
	}
	addresses := make([]string, 0, len(accounts))
	for _, account := range accounts {
		addresses = append(addresses, account.Address)
	}
	sort.Strings(addresses)
	return addresses, nil
}

func (s *searchService) WriteResultsCSV(ctx context.Context, query string, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Search Query:", query}); err != nil {
		return err
	}

	first := true
	page := 1
	for {
		result, err := s.Search(ctx, query, page, 1000, false)
		if err != nil {
			return err
		}
		for _, account := range result.Accounts {
			label := ""
			if first {
				label = "Matching Accounts"
				first = false
			}
			if err := writer.Write([]string{label, account}); err != nil {
				return err
			}
		}
		if page >= result.NumPages {
			break
		}
		page++
	}

	writer.Flush()
	return writer.Error()
}
