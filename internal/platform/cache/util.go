package cache

import (
	"time"
)

// TimeUntilNextRefresh は次のデータ更新時刻（loc の hour 時）までの期間を返します。
// 日次の取り込み後にキャッシュが切れるよう、キャッシュのTTLに使います。
func TimeUntilNextRefresh(now time.Time, loc *time.Location, hour int) time.Duration {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)

	// 今日の更新時刻が既に過ぎている場合は翌日を使用
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(now)
}
