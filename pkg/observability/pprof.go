package observability

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"course_chat_service/pkg/config"
	"course_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof serve /debug/pprof on addr outside production. Bind it to
// 127.0.0.1 unless the port is firewalled.
func StartPprof(addr string) {
	if addr == "" {
		return
	}
	if config.IsProduction() {
		logger.Log.Info("Production environment detected, pprof is disabled.")
		return
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Error("pprof server failed", zap.Error(err))
		}
	}()
}

// pprof 端點:
// 	•	/debug/pprof/ → 所有可用的分析數據
// 	•	/debug/pprof/goroutine → 所有 Goroutines, 輪詢卡住時先看這裡
// 	•	/debug/pprof/heap → 記憶體分配
// 	•	/debug/pprof/profile → 30 秒 CPU 分析
//
// go tool pprof http://127.0.0.1:6060/debug/pprof/heap
