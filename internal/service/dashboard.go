package service

import (
	"sort"

	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/model"
)

const (
	recentDocsLimit   = 3
	recentEventsLimit = 2
	recentFeedLimit   = 5
)

// GetDashboard aggregates stats across every business the user owns.
// Revenue counts published invoices only; receipts and drafts never
// contribute. A user with no businesses gets all zeroes.
func (s *service) GetDashboard(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	businessIDs, err := s.repo.GetBusinessIDsForUser(ctx, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get business ids for dashboard")
		dto.InternalServerError(ctx)
		return
	}

	stats := model.DashboardStats{RecentActivity: []model.ActivityItem{}}
	if len(businessIDs) == 0 {
		dto.SuccessResponse(ctx, stats)
		return
	}

	totals, err := s.repo.GetPublishedDocTotals(ctx, businessIDs)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get document totals")
		dto.InternalServerError(ctx)
		return
	}
	for _, t := range totals {
		switch t.Type {
		case model.DocInvoice:
			stats.TotalInvoices++
			stats.TotalRevenue += t.TotalAmount
		case model.DocReceipt:
			stats.TotalReceipts++
		}
	}

	stats.TotalEvents, err = s.repo.CountEvents(ctx, businessIDs)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count events")
		dto.InternalServerError(ctx)
		return
	}

	feed, err := s.recentActivity(ctx, businessIDs)
	if err != nil {
		// The feed is decoration on top of the stats; serve what we
		// have, mirroring how the totals survive a feed failure.
		s.log.Warn().Err(err).Msg("failed to build recent activity feed")
	} else {
		stats.RecentActivity = feed
	}

	dto.SuccessResponse(ctx, stats)
}

// recentActivity merges the latest documents and events into one feed
// sorted by creation time, newest first.
func (s *service) recentActivity(ctx *ginext.Context, businessIDs []string) ([]model.ActivityItem, error) {
	docs, err := s.repo.GetRecentDocuments(ctx, businessIDs, recentDocsLimit)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.GetRecentEvents(ctx, businessIDs, recentEventsLimit)
	if err != nil {
		return nil, err
	}

	feed := make([]model.ActivityItem, 0, len(docs)+len(events))
	feed = append(feed, docs...)
	feed = append(feed, events...)
	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	if len(feed) > recentFeedLimit {
		feed = feed[:recentFeedLimit]
	}
	return feed, nil
}
