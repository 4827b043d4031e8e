// Package cleanup は期限切れトークンの自動削除ジョブを提供する。
// 有効期限を過ぎたトークンを日次バッチで削除し、tokensテーブルの肥大化を防ぐ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenPurger は期限切れトークンの削除インターフェース。
// repository.TokenRepositoryの部分集合として定義する。
type TokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// PurgeRecorder は削除件数のメトリクス記録インターフェース。
type PurgeRecorder interface {
	RecordTokensPurged(count int64)
}

// CleanupJob は期限切れトークンの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	purger   TokenPurger
	logger   *slog.Logger
	recorder PurgeRecorder // nilの場合メトリクスは記録しない
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(purger TokenPurger, logger *slog.Logger, recorder PurgeRecorder) *CleanupJob {
	return &CleanupJob{
		purger:   purger,
		logger:   logger,
		recorder: recorder,
	}
}

// Run は期限切れトークンを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.purger.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("トークンクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("トークンクリーンアップの実行に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordTokensPurged(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("トークンクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunLoop は指定間隔でRunを繰り返し実行する。
// コンテキストがキャンセルされるまでブロックする。起動直後に1回実行する。
func (j *CleanupJob) RunLoop(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("initial token cleanup failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("token cleanup failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}
