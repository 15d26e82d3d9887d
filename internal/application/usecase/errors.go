package usecase

import "errors"

// ErrNoData возвращается, когда источник не отдал снимок метрик
var ErrNoData = errors.New("no pipeline metrics available")

// Ключи кеша
const (
	cacheKeyPrefix  = "pipeline-health:"
	cacheKeyLatest  = cacheKeyPrefix + "latest"
	cacheKeyPattern = cacheKeyPrefix + "*"
)

func historyCacheKey(duration string) string {
	return cacheKeyPrefix + "history:" + duration
}
