package orders

import (
	"context"
	"log/slog"
)

// TriageResult summarises one reconciliation pass.
type TriageResult struct {
	Evaluated int `json:"evaluated"`
	Promoted  int `json:"promoted"`
	Demoted   int `json:"demoted"`
	Skipped   int `json:"skipped"`
}

// Triage re-evaluates every open order of the shop against current stock and
// routes it to Picking or On Hold. It is advisory only: stock is neither
// reserved nor decremented, and unchanged orders are not rewritten, so the
// pass is idempotent and safe to re-run at any frequency.
func (s *Service) Triage(ctx context.Context, shopID int64) (TriageResult, error) {
	open, err := s.repo.ListOpen(ctx, shopID)
	if err != nil {
		return TriageResult{}, err
	}
	if len(open) == 0 {
		return TriageResult{}, nil
	}

	idSet := map[int64]struct{}{}
	for _, o := range open {
		for _, it := range o.Items {
			idSet[it.ProductID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	stock, err := s.stock.QuantityByIDs(ctx, shopID, ids)
	if err != nil {
		return TriageResult{}, err
	}

	var result TriageResult
	for _, o := range open {
		result.Evaluated++
		newStatus := StatusOnHold
		if canFulfill(o, stock) {
			newStatus = StatusPicking
		}
		if newStatus == o.Status {
			result.Skipped++
			continue
		}
		if err := s.repo.UpdateStatus(ctx, shopID, o.ID, newStatus); err != nil {
			return result, err
		}
		if newStatus == StatusPicking {
			result.Promoted++
		} else {
			result.Demoted++
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveTriage(result.Promoted, result.Demoted)
	}
	s.logger.Info("order triage pass",
		slog.Int64("shop_id", shopID),
		slog.Int("evaluated", result.Evaluated),
		slog.Int("promoted", result.Promoted),
		slog.Int("demoted", result.Demoted),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// canFulfill reports whether every line of the order is satisfiable by the
// stock snapshot. An unknown product counts as insufficient.
func canFulfill(o Order, stock map[int64]int64) bool {
	for _, it := range o.Items {
		qty, ok := stock[it.ProductID]
		if !ok || qty < it.Quantity {
			return false
		}
	}
	return true
}
