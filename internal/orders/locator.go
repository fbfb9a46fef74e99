package orders

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
)

// API is the slice of the upstream client the locator needs.
type API interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	GetOrders(ctx context.Context, query url.Values) ([]domain.Order, int, error)
}

// Locator resolves orders against a partially-unreliable upstream: server-side
// filters may be unavailable or return nothing, in which case it falls back to
// scanning the full paginated listing. Failures degrade to partial or empty
// results; a best-effort scan beats a failed request.
type Locator struct {
	api    API
	logger *zap.Logger
}

func NewLocator(api API, logger *zap.Logger) *Locator {
	return &Locator{api: api, logger: logger}
}

// FindByAnyID resolves an order by id or number. Strategies run in order and
// the first non-empty result wins: direct id lookup, then a number filter,
// then a free-text search. Only full exhaustion is a NotFoundError.
func (l *Locator) FindByAnyID(ctx context.Context, idOrNumber string) (domain.Order, error) {
	strategies := []struct {
		name string
		fn   func(context.Context, string) (domain.Order, bool)
	}{
		{"direct", l.byDirectID},
		{"number", l.byNumberFilter},
		{"search", l.bySearchFilter},
	}

	for _, s := range strategies {
		if ord, ok := s.fn(ctx, idOrNumber); ok {
			l.logger.Debug("order located",
				zap.String("strategy", s.name), zap.String("id", idOrNumber))
			return ord, nil
		}
	}

	return domain.Order{}, apperrors.NewNotFoundError("order not found")
}

// ListByEmail collects orders matching an email. Server-side search and email
// filters are tried first and their non-empty results merged; when both come
// back empty the full listing is scanned page by page with client-side
// matching across every email field the upstream may populate.
//
// Matches keep the upstream's native order. Callers that want "the most
// recent order" take the first match; true recency ordering is not guaranteed
// by the upstream.
func (l *Locator) ListByEmail(ctx context.Context, email string) []domain.Order {
	var matches []domain.Order
	seen := map[string]bool{}

	for _, filter := range []string{"search", "email"} {
		found, _, err := l.api.GetOrders(ctx, url.Values{filter: {email}})
		if err != nil {
			l.logger.Debug("server-side filter failed",
				zap.String("filter", filter), zap.Error(err))
			continue
		}
		for _, ord := range found {
			if key := orderKey(ord); !seen[key] {
				seen[key] = true
				matches = append(matches, ord)
			}
		}
	}
	if len(matches) > 0 {
		return matches
	}

	for _, ord := range l.ListAllPaged(ctx) {
		if ord.MatchesEmail(email) {
			matches = append(matches, ord)
		}
	}
	return matches
}

// ListAllPaged fetches the whole order listing. Pagination follows the
// last_page hint from the first page (default 1) and stops silently on the
// first empty page or request failure; partial results are acceptable.
func (l *Locator) ListAllPaged(ctx context.Context) []domain.Order {
	all := []domain.Order{}
	l.EachOrderPaged(ctx, func(ord domain.Order) error {
		all = append(all, ord)
		return nil
	})
	return all
}

// EachOrderPaged streams the full listing one order at a time, fetching pages
// lazily so large shops can start producing output before the scan ends.
// A non-nil error from fn aborts the iteration and is returned; upstream
// failures stop the scan silently instead.
func (l *Locator) EachOrderPaged(ctx context.Context, fn func(domain.Order) error) error {
	orders, lastPage, err := l.api.GetOrders(ctx, url.Values{"page": {"1"}})
	if err != nil {
		l.logger.Warn("listing page 1 failed", zap.Error(err))
		return nil
	}
	for _, ord := range orders {
		if err := fn(ord); err != nil {
			return err
		}
	}
	if len(orders) == 0 {
		return nil
	}

	for page := 2; page <= lastPage; page++ {
		orders, _, err := l.api.GetOrders(ctx, url.Values{"page": {strconv.Itoa(page)}})
		if err != nil {
			l.logger.Warn("pagination stopped on failure", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(orders) == 0 {
			break
		}
		for _, ord := range orders {
			if err := fn(ord); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Locator) byDirectID(ctx context.Context, id string) (domain.Order, bool) {
	ord, err := l.api.GetOrder(ctx, id)
	if err != nil || orderEmpty(ord) {
		return domain.Order{}, false
	}
	return ord, true
}

func (l *Locator) byNumberFilter(ctx context.Context, id string) (domain.Order, bool) {
	return l.firstByFilter(ctx, "number", id)
}

func (l *Locator) bySearchFilter(ctx context.Context, id string) (domain.Order, bool) {
	return l.firstByFilter(ctx, "search", id)
}

func (l *Locator) firstByFilter(ctx context.Context, filter, value string) (domain.Order, bool) {
	found, _, err := l.api.GetOrders(ctx, url.Values{filter: {value}})
	if err != nil || len(found) == 0 {
		return domain.Order{}, false
	}
	return found[0], true
}

func orderKey(ord domain.Order) string {
	return fmt.Sprintf("%d/%s", ord.ID, ord.NumberString())
}

func orderEmpty(ord domain.Order) bool {
	return ord.ID == 0 && ord.NumberString() == ""
}
