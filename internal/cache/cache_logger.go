package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops the cached course tree, the catalog listings and the
// course level progress summaries
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("tree:%d", courseID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Progress, fmt.Sprintf("course:%d:*", courseID))
}

// InvalidateProgressCache drops the summary of one user in one course
func InvalidateProgressCache(ctx context.Context, cm *CacheManager, userID, courseID uint) {
	SafeDelete(ctx, cm.Progress, fmt.Sprintf("course:%d:user:%d", courseID, userID))
}

// InvalidateCertificateCache drops a cached validation lookup
func InvalidateCertificateCache(ctx context.Context, cm *CacheManager, code string) {
	SafeDelete(ctx, cm.Certificate, "code:"+code)
}

// InvalidateUserCache drops every cached summary of a user and the validation
// lookups, which carry the holder's name
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeInvalidatePattern(ctx, cm.Progress, fmt.Sprintf("course:*:user:%d", userID))
	SafeInvalidatePattern(ctx, cm.Certificate, "code:*")
}
