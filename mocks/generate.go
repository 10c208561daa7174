package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_fetcher.go -package=mocks github.com/rxtech-lab/argo-bh/pkg/marketdata/provider Fetcher
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/argo-bh/internal/notifier Notifier
//go:generate mockgen -destination=./mock_recorder.go -package=mocks github.com/rxtech-lab/argo-bh/internal/recorder Recorder
