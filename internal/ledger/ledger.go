// Package ledger answers balance, settlement and statistics queries.
//
// Every answer is computed from a consistent storage snapshot by the
// calculator package. Group balances may be served from a cache that is
// invalidated on every write touching the group. A recomputation only lands
// in the cache if no invalidation happened since it started reading.
package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/metrics"
)

// MemberBalance is a user's position in a group, with their name.
type MemberBalance struct {
	UserID       int64       `json:"user_id"`
	UserName     string      `json:"user_name"`
	Paid         money.Cents `json:"paid"`
	Owes         money.Cents `json:"owes"`
	Net          money.Cents `json:"net"`
	FormerMember bool        `json:"former_member,omitempty"`
}

// GroupBalances is the balance sheet of one group, largest debt first.
type GroupBalances struct {
	GroupID   int64           `json:"group_id"`
	GroupName string          `json:"group_name"`
	Balances  []MemberBalance `json:"balances"`
}

// Settlement is a suggested payment with the names of both parties.
type Settlement struct {
	From     int64
	FromName string
	To       int64
	ToName   string
	Amount   money.Cents
}

// Service computes ledger views on demand.
type Service struct {
	store storage.Store
	cache cache.BalanceCache

	flight singleflight.Group
}

// recomputeTimeout bounds a shared recomputation, which outlives the
// cancellation of any single caller.
const recomputeTimeout = 30 * time.Second

// New creates a ledger service. A nil cache disables caching.
func New(store storage.Store, c cache.BalanceCache) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{store: store, cache: c}
}

// Invalidate drops cached balances for a group. It must be called after
// every committed write that changes the group's expenses or members.
func (s *Service) Invalidate(ctx context.Context, groupID int64) {
	if err := s.cache.Invalidate(ctx, groupID); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cached balances", "group_id", groupID, "error", err)
	}
}

// GroupBalances returns every current member's balance plus former members
// that still hold a non-zero position.
func (s *Service) GroupBalances(ctx context.Context, groupID int64) (*GroupBalances, error) {
	var cached GroupBalances
	hit, err := s.cache.Get(ctx, groupID, &cached)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		slog.WarnContext(ctx, "Balance cache lookup failed", "group_id", groupID, "error", err)
	case hit:
		metrics.RecordCacheLookup("hit")
		return &cached, nil
	default:
		metrics.RecordCacheLookup("miss")
	}

	// The recomputation is shared by every concurrent caller, so it must not
	// inherit the first caller's cancellation. Each caller still stops
	// waiting when its own context ends.
	ch := s.flight.DoChan(strconv.FormatInt(groupID, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recomputeTimeout)
		defer cancel()
		return s.computeGroupBalances(ctx, groupID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// Callers may sort or trim; the shared result must stay intact.
	shared := res.Val.(*GroupBalances)
	out := *shared
	out.Balances = append([]MemberBalance(nil), shared.Balances...)
	return &out, nil
}

func (s *Service) computeGroupBalances(ctx context.Context, groupID int64) (*GroupBalances, error) {
	// The version is read before the snapshot. Any write committed after
	// this point bumps it and makes the store below a no-op.
	version, versionErr := s.cache.Version(ctx, groupID)
	if versionErr != nil {
		slog.WarnContext(ctx, "Failed to read balance cache version", "group_id", groupID, "error", versionErr)
	}

	snapshot, err := s.store.LoadGroupLedger(ctx, groupID)
	if err != nil {
		return nil, err
	}

	balances := calculator.ComputeBalances(snapshot.Expenses, snapshot.Group.Members)
	result := &GroupBalances{
		GroupID:   snapshot.Group.ID,
		GroupName: snapshot.Group.Name,
		Balances:  make([]MemberBalance, len(balances)),
	}
	for i, b := range balances {
		result.Balances[i] = MemberBalance{
			UserID:       b.UserID,
			UserName:     snapshot.Users[b.UserID].Name,
			Paid:         b.Paid,
			Owes:         b.Owes,
			Net:          b.Net,
			FormerMember: b.FormerMember,
		}
	}

	slog.DebugContext(ctx, "Computed group balances",
		"group_id", groupID,
		"expenses", len(snapshot.Expenses),
		"members", len(balances))

	if versionErr == nil {
		stored, err := s.cache.SetIfVersion(ctx, groupID, version, result)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Failed to cache balances", "group_id", groupID, "error", err)
		case !stored:
			slog.DebugContext(ctx, "Skipped caching balances invalidated during recomputation", "group_id", groupID)
		}
	}
	return result, nil
}

// Settlements reduces a group's balances to suggested payments.
func (s *Service) Settlements(ctx context.Context, groupID int64) ([]Settlement, error) {
	sheet, err := s.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(sheet.Balances))
	balances := make([]calculator.Balance, len(sheet.Balances))
	for i, b := range sheet.Balances {
		names[b.UserID] = b.UserName
		balances[i] = calculator.Balance{UserID: b.UserID, Paid: b.Paid, Owes: b.Owes, Net: b.Net}
	}

	transfers := calculator.ReduceToSettlements(balances)
	metrics.RecordSettlement(len(transfers))

	settlements := make([]Settlement, len(transfers))
	for i, t := range transfers {
		settlements[i] = Settlement{
			From:     t.From,
			FromName: names[t.From],
			To:       t.To,
			ToName:   names[t.To],
			Amount:   t.Amount,
		}
	}
	return settlements, nil
}

// UserGroupBalance is a user's position in one group.
type UserGroupBalance struct {
	GroupID   int64
	GroupName string
	Paid      money.Cents
	Owes      money.Cents
	Net       money.Cents
}

// UserBalances returns one balance per group the user belongs to, ordered by
// group name. Groups are independent ledgers; no cross-group total is made.
func (s *Service) UserBalances(ctx context.Context, userID int64) (*models.User, []UserGroupBalance, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	out := make([]UserGroupBalance, 0, len(groups))
	for _, g := range groups {
		sheet, err := s.GroupBalances(ctx, g.ID)
		if err != nil {
			return nil, nil, err
		}
		entry := UserGroupBalance{GroupID: g.ID, GroupName: g.Name}
		for _, b := range sheet.Balances {
			if b.UserID == userID {
				entry.Paid, entry.Owes, entry.Net = b.Paid, b.Owes, b.Net
				break
			}
		}
		out = append(out, entry)
	}
	return user, out, nil
}

// UserSummary condenses a user's per-group balances.
type UserSummary struct {
	User             models.User
	Groups           []UserGroupBalance
	Total            money.Cents
	GroupsWithDebt   int
	GroupsWithCredit int
	LargestDebt      money.Cents
	LargestCredit    money.Cents
}

// Summarize computes a UserSummary from per-group balances.
func Summarize(user models.User, groups []UserGroupBalance) UserSummary {
	summary := UserSummary{User: user, Groups: groups}
	for _, g := range groups {
		summary.Total += g.Net
		switch {
		case g.Net < 0:
			summary.GroupsWithDebt++
			summary.LargestDebt = max(summary.LargestDebt, -g.Net)
		case g.Net > 0:
			summary.GroupsWithCredit++
			summary.LargestCredit = max(summary.LargestCredit, g.Net)
		}
	}
	return summary
}

// UserSummary returns the user's balances across groups with totals.
func (s *Service) UserSummary(ctx context.Context, userID int64) (*UserSummary, error) {
	user, groups, err := s.UserBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(*user, groups)
	return &summary, nil
}
