package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// failing the caller on cache errors.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of failing on cache errors.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAssessmentCache clears every cache entry touched by an
// assessment mutation, including the active-assessment quiz lookup keyed
// by module.
func InvalidateAssessmentCache(ctx context.Context, cm *CacheManager, assessmentID, moduleID uint) {
	SafeDelete(ctx, cm.Assessment,
		fmt.Sprintf("id:%d", assessmentID),
		fmt.Sprintf("module-active:%d", moduleID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("assessment:%d:*", assessmentID))
}

// InvalidateQuestionPoolCache clears assessment entries after a question
// mutation. Questions do not carry a module ID, so every module-active
// entry is dropped rather than resolving the owning module first.
func InvalidateQuestionPoolCache(ctx context.Context, cm *CacheManager, assessmentID uint) {
	SafeDelete(ctx, cm.Assessment, fmt.Sprintf("id:%d", assessmentID))
	SafeInvalidatePattern(ctx, cm.Assessment, "module-active:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("assessment:%d:*", assessmentID))
}

// InvalidateProgressCache clears a learner's progress entries after an
// upsert.
func InvalidateProgressCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeInvalidatePattern(ctx, cm.Progress, fmt.Sprintf("user:%d:*", userID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("user:%d:*", userID))
}
